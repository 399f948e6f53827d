// Package notify provides operational alerting for the coordinator: a
// Slack-backed Notifier that posts on self-healing actions and failed
// validation passes, following the teacher's pkg/slack client shape.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	goslack "github.com/slack-go/slack"

	"github.com/agentmesh/coordinator/pkg/breaker"
)

// Notifier sends an operational message to whatever channel the
// implementation is configured for.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// SlackNotifier posts messages to a fixed Slack channel, guarded by a
// circuit breaker so a Slack outage doesn't pile up retries on every
// self-healing action.
type SlackNotifier struct {
	api       *goslack.Client
	channelID string
	log       *slog.Logger
	cb        *breaker.Breaker
}

// NewSlackNotifier constructs a notifier using the default Slack API
// endpoint.
func NewSlackNotifier(token, channelID string) *SlackNotifier {
	return &SlackNotifier{
		api:       goslack.New(token),
		channelID: channelID,
		log:       slog.Default().With("component", "notify.slack"),
		cb:        breaker.New("slack-notify", 5),
	}
}

// NewSlackNotifierWithAPIURL builds a notifier against a custom API base
// URL, for exercising it against a mock server in tests.
func NewSlackNotifierWithAPIURL(token, channelID, apiURL string) *SlackNotifier {
	return &SlackNotifier{
		api:       goslack.New(token, goslack.OptionAPIURL(apiURL)),
		channelID: channelID,
		log:       slog.Default().With("component", "notify.slack"),
		cb:        breaker.New("slack-notify", 5),
	}
}

// Notify posts message to the configured channel.
func (n *SlackNotifier) Notify(ctx context.Context, message string) error {
	err := n.cb.Run(ctx, func(ctx context.Context) error {
		_, _, err := n.api.PostMessageContext(ctx, n.channelID, goslack.MsgOptionText(message, false))
		return err
	})
	if err != nil {
		return fmt.Errorf("notify: post message: %w", err)
	}
	return nil
}

// NoopNotifier discards every message. It exists so the coordinator can be
// wired without a configured Slack workspace.
type NoopNotifier struct{}

// Notify logs the message at debug level and returns nil.
func (NoopNotifier) Notify(ctx context.Context, message string) error {
	slog.Default().With("component", "notify.noop").Debug("notification suppressed", "message", message)
	return nil
}
