package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmesh/coordinator/pkg/network"
	"github.com/agentmesh/coordinator/pkg/notify"
)

func TestSlackNotifierPostsMessage(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := notify.NewSlackNotifierWithAPIURL("xoxb-test", "C123", srv.URL+"/")
	err := n.Notify(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "/chat.postMessage", gotPath)
}

func TestSlackNotifierPropagatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	n := notify.NewSlackNotifierWithAPIURL("xoxb-test", "C123", srv.URL+"/")
	err := n.Notify(context.Background(), "hello")
	assert.Error(t, err)
}

func TestNoopNotifierAlwaysSucceeds(t *testing.T) {
	var n notify.NoopNotifier
	assert.NoError(t, n.Notify(context.Background(), "anything"))
}

func TestSelfHealingMessageFormatsAction(t *testing.T) {
	action := network.RecoveryAction{Kind: network.RecoveryRestartAgent}
	msg := notify.SelfHealingMessage(action)
	assert.Contains(t, msg, "self-healing")
	assert.Contains(t, msg, string(network.RecoveryRestartAgent))
}

func TestValidationFailureMessageListsErrors(t *testing.T) {
	result := network.ValidationResult{
		Valid: false,
		Errors: []network.ValidationError{
			{Code: network.ErrCodeInvalidState, Detail: "bad state"},
		},
	}
	msg := notify.ValidationFailureMessage(result)
	assert.Contains(t, msg, "1 issue")
	assert.Contains(t, msg, "bad state")
}
