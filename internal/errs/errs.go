// Package errs defines the core's error-kind taxonomy (§7) as sentinel and
// wrapped errors, following the standard errors.Is/errors.As idiom.
package errs

import "errors"

// Sentinel error kinds. Components wrap these with fmt.Errorf("...: %w", ...)
// to attach detail while keeping errors.Is matchable.
var (
	// ErrTransientLLM covers timeout / 429 / 503 / 504 / connection failures.
	// Retried by the resilience layer (C14); surfaced as an error chunk only
	// once the retry budget is exhausted.
	ErrTransientLLM = errors.New("transient llm error")

	// ErrPermanentLLM covers 4xx (not 429), 500, and malformed JSON replies.
	// Never retried.
	ErrPermanentLLM = errors.New("permanent llm error")

	// ErrCircuitOpen is returned when the circuit breaker fails a call fast.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrToolForbidden covers an agent using a tool it is not allowed to use,
	// a file-path restriction violation, or an unknown tool name.
	ErrToolForbidden = errors.New("tool forbidden for this agent")

	// ErrInvalidToolCall covers a missing id/name or more than one tool call
	// in a single assistant turn.
	ErrInvalidToolCall = errors.New("invalid tool call")

	// ErrConversationInactive is returned by appendMessage on a deactivated
	// conversation.
	ErrConversationInactive = errors.New("conversation is inactive")

	// ErrMessageLimit is returned by appendMessage once the conversation's
	// message cap is reached.
	ErrMessageLimit = errors.New("conversation message limit reached")

	// ErrSwitchLimit is returned when an agent switch would exceed maxSwitches.
	ErrSwitchLimit = errors.New("agent switch limit reached")

	// ErrInvalidPlan covers cycles, missing dependencies, self-dependencies,
	// or duplicate subtask ids at plan creation.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrApprovalNotFound is returned when a decision targets an unknown
	// approval request id.
	ErrApprovalNotFound = errors.New("approval request not found")

	// ErrApprovalTerminal is returned when a decision targets an approval
	// request that has already been decided.
	ErrApprovalTerminal = errors.New("approval request already decided")

	// ErrUpstreamDependencyFailed marks a subtask that cannot run because a
	// predecessor failed.
	ErrUpstreamDependencyFailed = errors.New("upstream dependency failed")

	// ErrPlanDeadlock marks a non-terminal plan with no ready and no running
	// subtasks.
	ErrPlanDeadlock = errors.New("plan deadlocked: no ready or running subtasks")

	// ErrToolCallNotFound is returned by ProcessToolResult when the callId
	// does not reference the most recent outstanding tool call.
	ErrToolCallNotFound = errors.New("tool call not found or not outstanding")

	// ErrConversationNotFound is returned by store lookups.
	ErrConversationNotFound = errors.New("conversation not found")
)

// IsRetryable reports whether err should be retried by the resilience layer.
// Only ErrTransientLLM-classified failures are retryable; everything else
// (including an open circuit) propagates immediately.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientLLM)
}
