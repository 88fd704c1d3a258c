package llm

import (
	"github.com/haasonsaas/agentcore/pkg/models"
)

// ApprovalEvaluator decides whether a tool call requires human approval. The
// HITL policy (C4) implements this; injected here to avoid a dependency
// cycle between the response processor (C6) and the approval store.
type ApprovalEvaluator interface {
	RequiresApproval(toolName string) (required bool, reason string)
}

// ProcessedResponse is the C6 output: at most one tool call, with HITL policy
// already evaluated against it.
type ProcessedResponse struct {
	Content            string
	ToolCalls          []models.ToolCall
	Usage              Usage
	Model              string
	RequiresApproval   bool
	ApprovalReason     string
	ValidationWarnings []string
}

// Process enforces the assistant-side contract (§4.C6): at most one tool call
// survives (first one kept, rest dropped with a warning); an empty response
// with no tool call is warned about; each kept tool call must have a
// non-empty id and name, else it is dropped entirely.
func Process(resp *Response, approvals ApprovalEvaluator) *ProcessedResponse {
	out := &ProcessedResponse{
		Content: resp.Content,
		Usage:   resp.Usage,
		Model:   resp.Model,
	}

	calls := resp.ToolCalls
	if len(calls) > 1 {
		out.ValidationWarnings = append(out.ValidationWarnings,
			"provider returned more than one tool call simultaneously; keeping only the first")
		calls = calls[:1]
	}

	if len(calls) == 1 {
		tc := calls[0]
		if tc.ID == "" || tc.ToolName == "" {
			out.ValidationWarnings = append(out.ValidationWarnings,
				"dropped tool call with missing id or name")
		} else {
			out.ToolCalls = []models.ToolCall{tc}
		}
	}

	if out.Content == "" && len(out.ToolCalls) == 0 {
		out.ValidationWarnings = append(out.ValidationWarnings, "empty response: no content and no tool call")
	}

	if len(out.ToolCalls) == 1 && approvals != nil {
		required, reason := approvals.RequiresApproval(out.ToolCalls[0].ToolName)
		out.RequiresApproval = required
		out.ApprovalReason = reason
	}

	return out
}
