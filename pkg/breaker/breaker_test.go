package breaker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmesh/coordinator/pkg/breaker"
)

func TestBreakerRunSuccess(t *testing.T) {
	b := breaker.New("test", 3)
	err := b.Run(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := breaker.New("test", 2)
	boom := errors.New("boom")
	failing := func(context.Context) error { return boom }

	require.Error(t, b.Run(context.Background(), failing))
	require.Error(t, b.Run(context.Background(), failing))
	assert.Equal(t, "open", b.State())

	err := b.Run(context.Background(), func(context.Context) error { return nil })
	assert.Error(t, err, "an open breaker rejects calls without invoking fn")
}
