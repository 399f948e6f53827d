package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster[string](4)
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	defer b.Unsubscribe(sub1)
	defer b.Unsubscribe(sub2)

	b.Publish("hello")

	assert.Equal(t, "hello", <-sub1.C)
	assert.Equal(t, "hello", <-sub2.C)
}

func TestBroadcasterDropsOnFullBuffer(t *testing.T) {
	b := NewBroadcaster[int](1)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(1)
	b.Publish(2) // dropped, buffer already full

	require.Equal(t, 1, <-sub.C)
	select {
	case v := <-sub.C:
		t.Fatalf("expected no more values, got %d", v)
	default:
	}
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster[int](1)
	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())
	_, ok := <-sub.C
	assert.False(t, ok)
}
