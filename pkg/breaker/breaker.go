// Package breaker provides a small circuit-breaker wrapper around
// gobreaker for guarding calls to external collaborators (Slack, the
// out-of-scope LLM service) whose repeated failure should stop being
// retried rather than compound, grounded in the reference pack's use of
// sony/gobreaker around remediation execution.
package breaker

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"
)

// Breaker wraps a named circuit breaker around a func(context.Context) error.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// New returns a breaker named name that trips open after
// consecutiveFailures in a row and allows one trial request once it is
// half-open.
func New(name string, consecutiveFailures uint32) *Breaker {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
	})
	return &Breaker{cb: cb}
}

// Run executes fn under the breaker. If the breaker is open, fn is not
// called and gobreaker.ErrOpenState is returned (wrapped).
func (b *Breaker) Run(ctx context.Context, fn func(context.Context) error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("breaker %s: %w", b.cb.Name(), err)
	}
	return nil
}

// State returns the breaker's current state name ("closed", "half-open",
// "open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}
