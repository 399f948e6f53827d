package learning

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// PatternStore is the persistence boundary the learning engine depends on.
// pkg/store provides a PostgreSQL-backed implementation; tests use an
// in-memory fake.
type PatternStore interface {
	UpsertPattern(ctx context.Context, p LearningPattern) error
	PatternsForReview(ctx context.Context, minOccurrences int64) ([]LearningPattern, error)
	UpdatePatternStatus(ctx context.Context, id int64, status PatternStatus, instructionID *int64) error
	InsertInstruction(ctx context.Context, ins CustomInstruction) (int64, error)
	AutoDisablePenalized(ctx context.Context, threshold float64) (int, error)
	DeleteIneffectiveInstructions(ctx context.Context) ([]string, error)
	DecayPenalty(ctx context.Context, instructionID int64, amount float64) error
	ApplyPenalty(ctx context.Context, instructionID int64, amount float64, reason string) error
}

// Engine detects recurring failure patterns in completed agent runs,
// promotes them to CustomInstructions once they occur often enough, and
// retires instructions that stop helping.
type Engine struct {
	config LearningConfig
}

// NewEngine returns an engine using DefaultLearningConfig.
func NewEngine() *Engine {
	return &Engine{config: DefaultLearningConfig()}
}

// NewEngineWithConfig returns an engine using the supplied config.
func NewEngineWithConfig(cfg LearningConfig) *Engine {
	return &Engine{config: cfg}
}

// Config returns the engine's configuration.
func (e *Engine) Config() LearningConfig {
	return e.config
}

// AnalyzeAgentRun inspects a completed run's transcript for recurring
// failure signals and persists any detected patterns. It is a no-op for
// successful runs — patterns are only mined from failures.
func (e *Engine) AnalyzeAgentRun(ctx context.Context, store PatternStore, agentType string, messages []AgentMessage, success bool) error {
	if success {
		return nil
	}

	var patterns []LearningPattern
	if e.config.patternTypeEnabled(PatternError) {
		patterns = append(patterns, e.detectErrorPatterns(messages, agentType)...)
	}
	if e.config.patternTypeEnabled(PatternToolUsage) {
		patterns = append(patterns, e.detectToolPatterns(messages, agentType)...)
	}
	if e.config.patternTypeEnabled(PatternBehavior) {
		patterns = append(patterns, e.detectBehaviorPatterns(messages, agentType)...)
	}

	for _, p := range patterns {
		if err := store.UpsertPattern(ctx, p); err != nil {
			return fmt.Errorf("learning: upsert pattern %s: %w", p.Signature, err)
		}
	}
	return nil
}

func (e *Engine) detectErrorPatterns(messages []AgentMessage, agentType string) []LearningPattern {
	var out []LearningPattern
	for _, msg := range messages {
		for _, result := range msg.ToolResults {
			if !result.IsError {
				continue
			}
			out = append(out, e.createErrorPattern(msg.Content, agentType))
		}
		if strings.Contains(msg.Content, "STATUS: BLOCKED") || strings.Contains(msg.Content, "STATUS: FAILED") {
			out = append(out, e.createStatusPattern(msg.Content, agentType))
		}
	}
	return out
}

func (e *Engine) createErrorPattern(rawText, agentType string) LearningPattern {
	normalized := normalizeErrorText(rawText)
	sig := createSignature(normalized, "error")
	category := categorizeError(normalized)
	original := rawText
	if len(original) > 500 {
		original = original[:500]
	}
	data, _ := json.Marshal(map[string]string{
		"error_text":    normalized,
		"original_text": original,
		"category":      category,
	})
	p := NewLearningPattern(PatternError, sig, data)
	if agentType != "" {
		p = p.WithAgentType(agentType)
	}
	return p
}

func (e *Engine) createStatusPattern(content, agentType string) LearningPattern {
	text := statusReason(content)
	sig := createSignature(text, "status")
	data, _ := json.Marshal(map[string]any{
		"status_text": text,
		"is_blocked":  strings.Contains(content, "STATUS: BLOCKED"),
		"is_failed":   strings.Contains(content, "STATUS: FAILED"),
	})
	p := NewLearningPattern(PatternError, sig, data)
	if agentType != "" {
		p = p.WithAgentType(agentType)
	}
	return p
}

// statusReason extracts the text following "Reason:" if present, otherwise
// the first 200 characters following "STATUS:".
func statusReason(content string) string {
	if idx := strings.Index(content, "Reason:"); idx != -1 {
		text := strings.TrimSpace(content[idx+len("Reason:"):])
		if len(text) > 200 {
			text = text[:200]
		}
		return text
	}
	if idx := strings.Index(content, "STATUS:"); idx != -1 {
		text := strings.TrimSpace(content[idx+len("STATUS:"):])
		if len(text) > 200 {
			text = text[:200]
		}
		return text
	}
	return strings.TrimSpace(content)
}

func (e *Engine) detectToolPatterns(messages []AgentMessage, agentType string) []LearningPattern {
	failCounts := make(map[string]int)
	callNameByID := make(map[string]string)
	for _, msg := range messages {
		for _, call := range msg.ToolCalls {
			callNameByID[call.ID] = call.Name
		}
	}
	for _, msg := range messages {
		for _, result := range msg.ToolResults {
			if !result.IsError {
				continue
			}
			if name, ok := callNameByID[result.CallID]; ok {
				failCounts[name]++
			}
		}
	}

	var out []LearningPattern
	for toolName, count := range failCounts {
		if count < 3 {
			continue
		}
		sig := createSignature(fmt.Sprintf("retry_fail_%s", toolName), "tool")
		data, _ := json.Marshal(map[string]any{
			"tool_name":  toolName,
			"fail_count": count,
			"category":   "excessive_retry",
		})
		p := NewLearningPattern(PatternToolUsage, sig, data)
		if agentType != "" {
			p = p.WithAgentType(agentType)
		}
		out = append(out, p)
	}
	return out
}

var clarificationPhrases = []string{
	"could you clarify",
	"i need more information",
	"can you provide more details",
	"i'm not sure what you mean",
}

func (e *Engine) detectBehaviorPatterns(messages []AgentMessage, agentType string) []LearningPattern {
	var out []LearningPattern

	clarifications := 0
	for _, msg := range messages {
		if msg.Role != "assistant" {
			continue
		}
		lower := strings.ToLower(msg.Content)
		for _, phrase := range clarificationPhrases {
			if strings.Contains(lower, phrase) {
				clarifications++
				break
			}
		}
	}
	if clarifications >= 3 {
		sig := createSignature("excessive_clarification", "behavior")
		data, _ := json.Marshal(map[string]any{"category": "excessive_clarification", "count": clarifications})
		p := NewLearningPattern(PatternBehavior, sig, data)
		if agentType != "" {
			p = p.WithAgentType(agentType)
		}
		out = append(out, p)
	}

	var callSequence []string
	for _, msg := range messages {
		for _, call := range msg.ToolCalls {
			callSequence = append(callSequence, call.Name)
		}
	}
	if tool, ok := repeatedWindow(callSequence, 5); ok {
		sig := createSignature(fmt.Sprintf("repetitive_%s", tool), "behavior")
		data, _ := json.Marshal(map[string]any{"category": "repetitive_action", "tool_name": tool})
		p := NewLearningPattern(PatternBehavior, sig, data)
		if agentType != "" {
			p = p.WithAgentType(agentType)
		}
		out = append(out, p)
	}

	return out
}

// repeatedWindow reports the first tool name that appears windowSize times
// in a row in sequence.
func repeatedWindow(sequence []string, windowSize int) (string, bool) {
	if len(sequence) < windowSize {
		return "", false
	}
	for i := 0; i+windowSize <= len(sequence); i++ {
		first := sequence[i]
		allSame := true
		for j := 1; j < windowSize; j++ {
			if sequence[i+j] != first {
				allSame = false
				break
			}
		}
		if allSame {
			return first, true
		}
	}
	return "", false
}

var (
	pathRegex      = regexp.MustCompile(`/[\w/.-]+`)
	lineColRegex   = regexp.MustCompile(`:\d+:\d+`)
	uuidRegex      = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	timestampRegex = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?`)
)

// normalizeErrorText strips volatile substrings (paths, line:col positions,
// UUIDs, timestamps) from an error message so repeated occurrences of the
// same underlying error collapse to one signature.
func normalizeErrorText(text string) string {
	text = timestampRegex.ReplaceAllString(text, "<TIMESTAMP>")
	text = pathRegex.ReplaceAllString(text, "<PATH>")
	text = lineColRegex.ReplaceAllString(text, ":<LINE>")
	text = uuidRegex.ReplaceAllString(text, "<UUID>")
	text = strings.TrimSpace(text)
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

// categorizeError buckets a normalized error message into a coarse
// category. Checks run in a fixed order: "not found" is checked before
// "command error" so messages like "command not found" land in
// not_found_error rather than command_error.
func categorizeError(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "permission_denied") || strings.Contains(lower, "access_denied") ||
		strings.Contains(lower, "permission denied") || strings.Contains(lower, "access denied"):
		return "permission_error"
	case strings.Contains(lower, "not_found") || strings.Contains(lower, "no_such_file") ||
		strings.Contains(lower, "not found") || strings.Contains(lower, "no such file"):
		return "not_found_error"
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed_out") || strings.Contains(lower, "timed out"):
		return "timeout_error"
	case strings.Contains(lower, "connection") || strings.Contains(lower, "network"):
		return "network_error"
	case strings.Contains(lower, "syntax_error") || strings.Contains(lower, "parse_error") ||
		strings.Contains(lower, "syntax error") || strings.Contains(lower, "parse error"):
		return "syntax_error"
	case strings.Contains(lower, "type_error") || strings.Contains(lower, "type_mismatch") ||
		strings.Contains(lower, "type error") || strings.Contains(lower, "type mismatch"):
		return "type_error"
	case strings.Contains(lower, "out_of_memory") || strings.Contains(lower, "out of memory") || strings.Contains(lower, "memory"):
		return "memory_error"
	case strings.Contains(lower, "command_not_found") || strings.Contains(lower, "unknown_command") ||
		strings.Contains(lower, "command not found") || strings.Contains(lower, "unknown command"):
		return "command_error"
	default:
		return "unknown_error"
	}
}

// createSignature derives a stable dedup key for a pattern: the prefix
// followed by the first 8 bytes of SHA-256(prefix || content), hex-encoded.
func createSignature(content, prefix string) string {
	h := sha256.New()
	h.Write([]byte(prefix))
	h.Write([]byte(content))
	sum := h.Sum(nil)
	return fmt.Sprintf("%s_%x", prefix, sum[:8])
}

// calculateConfidence combines how often a pattern has occurred with a
// type-specific bias, capped at 0.9 so a learned instruction is never
// auto-approved with full certainty.
func calculateConfidence(occurrenceCount int64, patternType PatternType) float64 {
	occurrenceFactor := float64(occurrenceCount) / 10
	if occurrenceFactor > 0.5 {
		occurrenceFactor = 0.5
	}
	var typeModifier float64
	switch patternType {
	case PatternError:
		typeModifier = 0.3
	case PatternToolUsage:
		typeModifier = 0.2
	case PatternBehavior:
		typeModifier = 0.1
	}
	confidence := occurrenceFactor + typeModifier
	if confidence > 0.9 {
		confidence = 0.9
	}
	return confidence
}

// ProcessPatterns promotes patterns that have crossed MinOccurrences into
// CustomInstructions, auto-approving (and, if configured, auto-enabling)
// those confident enough.
func (e *Engine) ProcessPatterns(ctx context.Context, store PatternStore) error {
	patterns, err := store.PatternsForReview(ctx, e.config.MinOccurrences)
	if err != nil {
		return fmt.Errorf("learning: fetch patterns for review: %w", err)
	}

	for _, p := range patterns {
		if p.InstructionID != nil {
			continue
		}
		ins, ok := e.generateInstructionFromPattern(p)
		if !ok {
			continue
		}

		status := StatusPendingReview
		if ins.Confidence >= e.config.AutoApproveThreshold {
			status = StatusApproved
			if e.config.AutoEnable {
				ins.Enabled = true
			}
		}

		id, err := store.InsertInstruction(ctx, ins)
		if err != nil {
			return fmt.Errorf("learning: insert instruction for pattern %s: %w", p.Signature, err)
		}
		if err := store.UpdatePatternStatus(ctx, p.ID, status, &id); err != nil {
			return fmt.Errorf("learning: update pattern status %s: %w", p.Signature, err)
		}
	}
	return nil
}

func (e *Engine) generateInstructionFromPattern(p LearningPattern) (CustomInstruction, bool) {
	var content string
	var ok bool
	switch p.Type {
	case PatternError:
		content, ok = generateErrorInstruction(p.Data)
	case PatternToolUsage:
		content, ok = generateToolInstruction(p.Data)
	case PatternBehavior:
		content, ok = generateBehaviorInstruction(p.Data)
	}
	if !ok {
		return CustomInstruction{}, false
	}

	confidence := calculateConfidence(p.OccurrenceCount, p.Type)
	ins := NewLearnedInstruction(fmt.Sprintf("learned_%s", p.Signature), content, confidence)
	ins.AgentType = p.AgentType
	if p.AgentType != "" {
		ins.Scope = ScopeAgentType
	}
	return ins, true
}

func generateErrorInstruction(data json.RawMessage) (string, bool) {
	var fields struct {
		ErrorText string `json:"error_text"`
		Category  string `json:"category"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", false
	}
	switch fields.Category {
	case "permission_error":
		return fmt.Sprintf("Before running commands that may require elevated permissions, check file/directory permissions first. Past runs hit: %s", fields.ErrorText), true
	case "not_found_error":
		return fmt.Sprintf("Verify a file or command exists before assuming it does. Past runs hit: %s", fields.ErrorText), true
	case "timeout_error":
		return fmt.Sprintf("This operation has timed out in past runs (%s); consider breaking it into smaller steps or increasing patience before retrying.", fields.ErrorText), true
	case "network_error":
		return fmt.Sprintf("A network/connection error occurred in past runs (%s); retry with backoff rather than failing immediately.", fields.ErrorText), true
	case "command_error":
		return fmt.Sprintf("A command was not found in past runs (%s); confirm the tool is installed or use an alternative.", fields.ErrorText), true
	default:
		return fmt.Sprintf("Past runs encountered this error: %s. Consider this before repeating the same approach.", fields.ErrorText), true
	}
}

func generateToolInstruction(data json.RawMessage) (string, bool) {
	var fields struct {
		ToolName string `json:"tool_name"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", false
	}
	if fields.Category == "excessive_retry" {
		return fmt.Sprintf("The %s tool has failed repeatedly in past runs. Verify its inputs carefully before calling it, and consider an alternative approach after two failures.", fields.ToolName), true
	}
	return fmt.Sprintf("Exercise caution when using %s; it has caused issues in past runs.", fields.ToolName), true
}

func generateBehaviorInstruction(data json.RawMessage) (string, bool) {
	var fields struct {
		Category string `json:"category"`
		ToolName string `json:"tool_name"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", false
	}
	switch fields.Category {
	case "excessive_clarification":
		return "Past runs asked for clarification repeatedly instead of making a reasonable assumption and proceeding. Prefer making a documented assumption over stalling on a clarifying question.", true
	case "repetitive_action":
		return fmt.Sprintf("Past runs called %s repeatedly without changing approach. If a tool call does not make progress after a couple of attempts, change strategy instead of repeating it.", fields.ToolName), true
	default:
		return "", false
	}
}

// Cleanup disables instructions whose penalty has crossed the configured
// threshold and deletes instructions that have become ineffective.
func (e *Engine) Cleanup(ctx context.Context, store PatternStore) (CleanupResult, error) {
	disabled, err := store.AutoDisablePenalized(ctx, e.config.PenaltyDisableThreshold)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("learning: auto-disable penalized instructions: %w", err)
	}
	deleted, err := store.DeleteIneffectiveInstructions(ctx)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("learning: delete ineffective instructions: %w", err)
	}
	return CleanupResult{DisabledCount: disabled, DeletedNames: deleted}, nil
}

// ApplyOutcomePenalties adjusts the effectiveness score of every instruction
// that was active during a run, based on whether the run succeeded.
func (e *Engine) ApplyOutcomePenalties(ctx context.Context, store PatternStore, instructionIDs []int64, success, wasBlocked bool) error {
	for _, id := range instructionIDs {
		var err error
		switch {
		case success:
			err = store.DecayPenalty(ctx, id, DecayOnSuccess)
		case wasBlocked:
			err = store.ApplyPenalty(ctx, id, PenaltyBlocked, "agent_blocked")
		default:
			err = store.ApplyPenalty(ctx, id, PenaltyFailure, "agent_failed")
		}
		if err != nil {
			return fmt.Errorf("learning: apply outcome penalty to instruction %d: %w", id, err)
		}
	}
	return nil
}
