// Package worker implements the queue.Processor that drains the durable
// work queue: agent-run analysis for the learning engine, periodic
// instruction cleanup, and outbound notifications, following the
// teacher's approach of keeping queue payload handling out of the HTTP
// layer entirely.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/agentmesh/coordinator/pkg/learning"
	"github.com/agentmesh/coordinator/pkg/notify"
	"github.com/agentmesh/coordinator/pkg/queue"
)

// Job kinds recognized by JobProcessor. Unrecognized kinds fail the item
// so it dead-letters instead of being silently dropped.
const (
	KindAnalyzeRun = "analyze_run"
	KindCleanup    = "cleanup_instructions"
	KindNotify     = "notify"
)

// AnalyzeRunPayload is the JSON body of a KindAnalyzeRun item.
type AnalyzeRunPayload struct {
	AgentType string                  `json:"agent_type"`
	Success   bool                    `json:"success"`
	Messages  []learning.AgentMessage `json:"messages"`
}

// NotifyPayload is the JSON body of a KindNotify item.
type NotifyPayload struct {
	Message string `json:"message"`
}

// JobProcessor implements queue.Processor over the learning engine and
// notifier.
type JobProcessor struct {
	engine   *learning.Engine
	store    learning.PatternStore
	notifier notify.Notifier
	log      *slog.Logger
}

// NewJobProcessor wires a processor against the given pattern store and
// notifier.
func NewJobProcessor(engine *learning.Engine, store learning.PatternStore, notifier notify.Notifier) *JobProcessor {
	return &JobProcessor{
		engine:   engine,
		store:    store,
		notifier: notifier,
		log:      slog.Default().With("component", "worker"),
	}
}

// Process dispatches item to the handler for its Kind.
func (p *JobProcessor) Process(ctx context.Context, item queue.Item) error {
	switch item.Kind {
	case KindAnalyzeRun:
		return p.processAnalyzeRun(ctx, item)
	case KindCleanup:
		return p.processCleanup(ctx)
	case KindNotify:
		return p.processNotify(ctx, item)
	default:
		return fmt.Errorf("worker: unknown job kind %q", item.Kind)
	}
}

func (p *JobProcessor) processAnalyzeRun(ctx context.Context, item queue.Item) error {
	var payload AnalyzeRunPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("worker: decode analyze_run payload: %w", err)
	}
	if err := p.engine.AnalyzeAgentRun(ctx, p.store, payload.AgentType, payload.Messages, payload.Success); err != nil {
		return fmt.Errorf("worker: analyze run: %w", err)
	}
	if err := p.engine.ProcessPatterns(ctx, p.store); err != nil {
		return fmt.Errorf("worker: process patterns: %w", err)
	}
	return nil
}

func (p *JobProcessor) processCleanup(ctx context.Context) error {
	result, err := p.engine.Cleanup(ctx, p.store)
	if err != nil {
		return fmt.Errorf("worker: cleanup: %w", err)
	}
	p.log.Info("instruction cleanup", "disabled", result.DisabledCount, "deleted", result.DeletedNames)
	return nil
}

func (p *JobProcessor) processNotify(ctx context.Context, item queue.Item) error {
	var payload NotifyPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("worker: decode notify payload: %w", err)
	}
	if err := p.notifier.Notify(ctx, payload.Message); err != nil {
		return fmt.Errorf("worker: notify: %w", err)
	}
	return nil
}
