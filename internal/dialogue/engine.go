package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/agentcore/internal/agentreg"
	"github.com/haasonsaas/agentcore/internal/convo"
	"github.com/haasonsaas/agentcore/internal/errs"
	"github.com/haasonsaas/agentcore/internal/eventbus"
	"github.com/haasonsaas/agentcore/internal/hitl"
	"github.com/haasonsaas/agentcore/internal/infra"
	"github.com/haasonsaas/agentcore/internal/llm"
	"github.com/haasonsaas/agentcore/internal/observability"
	"github.com/haasonsaas/agentcore/internal/toolreg"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// LLMCaller is the subset of internal/llm.Client the engine needs,
// narrowed so tests can substitute a stub.
type LLMCaller interface {
	ChatCompletion(ctx context.Context, model string, messages []models.Message, tools []models.ToolSpec) (*llm.Response, error)
}

// Engine runs one turn at a time for one agent, composing C2-C6 and C14.
type Engine struct {
	Model       string
	LLM         LLMCaller
	Circuit     *infra.CircuitBreaker
	RetryConfig *infra.RetryConfig
	Convo       *convo.Store
	Agents      *agentreg.Registry
	Tools       *toolreg.Registry
	Approvals   *hitl.Store
	Policy      *hitl.Policy
	Bus         *eventbus.Bus
	Logger      *observability.Logger
	Tracer      *observability.Tracer
	NewID       func() string
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e *Engine) logInfo(ctx context.Context, msg string, args ...any) {
	if e.Logger != nil {
		e.Logger.Info(ctx, msg, args...)
	}
}

func (e *Engine) logWarn(ctx context.Context, msg string, args ...any) {
	if e.Logger != nil {
		e.Logger.Warn(ctx, msg, args...)
	}
}

func (e *Engine) logError(ctx context.Context, msg string, args ...any) {
	if e.Logger != nil {
		e.Logger.Error(ctx, msg, args...)
	}
}

// startSpan opens a turn-scoped span when a tracer is configured, returning
// a no-op end func otherwise so callers can defer unconditionally.
func (e *Engine) startSpan(ctx context.Context, name string) (context.Context, func(err error)) {
	if e.Tracer == nil {
		return ctx, func(error) {}
	}
	spanCtx, span := e.Tracer.Start(ctx, name)
	return spanCtx, func(err error) {
		if err != nil {
			e.Tracer.RecordError(span, err)
		}
		span.End()
	}
}

// Turn runs one LLM round for agent within conv, emitting chunks on the
// returned channel. The channel is closed after exactly one isFinal chunk
// (§4.C7's ordering guarantee). The caller must already hold the
// conversation's session lock (§4.C12) — Turn does not acquire it.
func (e *Engine) Turn(ctx context.Context, conv *models.Conversation, agent *models.Agent) <-chan Chunk {
	out := make(chan Chunk, 4)
	go e.runTurn(ctx, conv, agent, out)
	return out
}

func (e *Engine) runTurn(ctx context.Context, conv *models.Conversation, agent *models.Agent, out chan<- Chunk) {
	defer close(out)

	runID := e.newID()
	runCtx := observability.AddSessionID(ctx, conv.ID)
	runCtx = observability.AddRunID(runCtx, runID)
	runCtx = observability.AddAgentID(runCtx, string(agent.CurrentType))

	var spanErr error
	runCtx, endSpan := e.startSpan(runCtx, "dialogue.turn")
	defer func() { endSpan(spanErr) }()

	e.publish(runCtx, observability.EventRequestStarted, "turn started", nil)
	e.logInfo(runCtx, "turn started", "conversation_id", conv.ID, "agent", string(agent.CurrentType))

	caps, ok := e.Agents.Get(agent.CurrentType)
	if !ok {
		spanErr = fmt.Errorf("agent type %q is not registered", agent.CurrentType)
		e.publish(runCtx, observability.EventRequestFailed, "unknown agent type", map[string]any{"error_kind": "ToolForbidden"})
		e.logError(runCtx, "unknown agent type", "agent", string(agent.CurrentType))
		out <- errorChunk(spanErr.Error())
		return
	}

	allowedNames := make([]string, 0, len(caps.AllowedTools))
	for name := range caps.AllowedTools {
		allowedNames = append(allowedNames, name)
	}
	tools, _ := e.Tools.Filter(allowedNames)

	llmStart := time.Now()
	resp, attempts, err := e.callLLM(runCtx, conv.Messages, tools)
	observability.EmitRunAttempt(&observability.RunAttemptEvent{
		ConversationID: conv.ID,
		RunID:          runID,
		Attempt:        attempts,
		Succeeded:      err == nil,
	})
	if err != nil {
		spanErr = err
		e.publish(runCtx, observability.EventRequestFailed, err.Error(), map[string]any{"error_kind": classifyErrKind(err)})
		e.logError(runCtx, "llm call failed", "error", err.Error(), "error_kind", classifyErrKind(err))
		out <- errorChunk(err.Error())
		return
	}
	observability.EmitModelUsage(&observability.ModelUsageEvent{
		ConversationID: conv.ID,
		RunID:          runID,
		Model:          resp.Model,
		Usage: observability.UsageDetails{
			PromptTokens:     int64(resp.Usage.PromptTokens),
			CompletionTokens: int64(resp.Usage.CompletionTokens),
			Total:            int64(resp.Usage.TotalTokens),
		},
		DurationMs: time.Since(llmStart).Milliseconds(),
	})

	processed := llm.Process(resp, e.Policy)
	for _, w := range processed.ValidationWarnings {
		e.publish(runCtx, observability.EventValidationWarning, w, nil)
		e.logWarn(runCtx, "validation warning", "warning", w)
	}

	if len(processed.ToolCalls) == 1 {
		e.handleToolCall(runCtx, conv, agent, processed, out)
		return
	}

	now := time.Now()
	msg := models.Message{Role: models.RoleAssistant, Content: processed.Content, Timestamp: now}
	if appendErr := e.Convo.AppendMessage(conv, msg, now); appendErr != nil {
		spanErr = appendErr
		out <- errorChunk(appendErr.Error())
		return
	}
	e.publish(runCtx, observability.EventRequestCompleted, "turn completed", nil)
	e.logInfo(runCtx, "turn completed", "conversation_id", conv.ID)
	out <- assistantMessage(processed.Content)
}

func (e *Engine) callLLM(ctx context.Context, messages []models.Message, tools []models.ToolSpec) (*llm.Response, int, error) {
	cfg := e.RetryConfig
	if cfg == nil {
		cfg = infra.DefaultRetryConfig()
	}
	// A circuit-open result is a fast-fail signal, not a transient LLM
	// error: retrying it would just hammer an already-tripped breaker.
	userRetryIf := cfg.RetryIf
	cfgCopy := *cfg
	cfgCopy.RetryIf = func(err error) bool {
		if errors.Is(err, infra.ErrCircuitOpen) {
			return false
		}
		if userRetryIf != nil {
			return userRetryIf(err)
		}
		return true
	}
	cfg = &cfgCopy

	resp, result := infra.Retry(ctx, cfg, func(ctx context.Context) (*llm.Response, error) {
		return infra.ExecuteWithResult(e.Circuit, ctx, func(ctx context.Context) (*llm.Response, error) {
			return e.LLM.ChatCompletion(ctx, e.Model, messages, tools)
		})
	})
	if result.LastError != nil {
		return nil, result.Attempts, result.LastError
	}
	return resp, result.Attempts, nil
}

func (e *Engine) handleToolCall(ctx context.Context, conv *models.Conversation, agent *models.Agent, processed *llm.ProcessedResponse, out chan<- Chunk) {
	tc := processed.ToolCalls[0]

	if !e.Agents.CanUseTool(agent.CurrentType, tc.ToolName) {
		e.publish(ctx, observability.EventRequestFailed, "tool forbidden for agent", map[string]any{"error_kind": "ToolForbidden"})
		e.logWarn(ctx, "tool forbidden for agent", "agent", string(agent.CurrentType), "tool", tc.ToolName)
		out <- errorChunk(fmt.Sprintf("agent %q is not permitted to use tool %q", agent.CurrentType, tc.ToolName))
		return
	}

	if path, ok := filePathArg(tc); ok && !e.Agents.CanEditFile(agent.CurrentType, path) {
		e.publish(ctx, observability.EventRequestFailed, "file path forbidden", map[string]any{"error_kind": "ToolForbidden"})
		e.logWarn(ctx, "file path forbidden for agent", "agent", string(agent.CurrentType), "path", path)
		out <- errorChunk(fmt.Sprintf("agent %q is not permitted to touch path %q", agent.CurrentType, path))
		return
	}

	if tc.ToolName == "switch_mode" {
		out <- agentSwitch(agent.CurrentType, targetAgentArg(tc), reasonArg(tc))
		return
	}

	now := time.Now()
	if processed.RequiresApproval {
		req := e.Approvals.AddPending(tc.ID, models.ApprovalTool, tc.ToolName, conv.ID, tc.Arguments, processed.ApprovalReason, now)
		e.publish(ctx, observability.EventToolApprovalRequested, req.Subject, map[string]any{"approval_type": "tool"})
		out <- toolCall(tc.ID, tc.ToolName, tc.Arguments, true)
		return
	}

	msg := models.Message{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{tc}, Timestamp: now}
	if err := e.Convo.AppendMessage(conv, msg, now); err != nil {
		out <- errorChunk(err.Error())
		return
	}
	out <- toolCall(tc.ID, tc.ToolName, tc.Arguments, false)
}

func (e *Engine) publish(ctx context.Context, typ observability.EventType, name string, data map[string]any) {
	if e.Bus == nil {
		return
	}
	e.Bus.Publish(ctx, &observability.Event{Type: typ, Name: name, Data: data})
}

func filePathArg(tc models.ToolCall) (string, bool) {
	for _, key := range []string{"path", "from", "to"} {
		if v, ok := tc.Arguments[key]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func targetAgentArg(tc models.ToolCall) models.AgentType {
	if v, ok := tc.Arguments["target_agent"]; ok {
		if s, ok := v.(string); ok {
			return models.AgentType(s)
		}
	}
	return ""
}

func reasonArg(tc models.ToolCall) string {
	if v, ok := tc.Arguments["reason"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func classifyErrKind(err error) string {
	switch {
	case errs.IsRetryable(err):
		return "TransientLLM"
	default:
		return "PermanentLLM"
	}
}
