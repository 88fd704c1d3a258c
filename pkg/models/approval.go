package models

import "time"

// ApprovalType distinguishes a tool-call approval from a plan approval.
type ApprovalType string

const (
	ApprovalTool ApprovalType = "tool"
	ApprovalPlan ApprovalType = "plan"
)

// ApprovalStatus is the lifecycle state of an approval request.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ApprovalDecision is the inbound decision kind (§6).
type ApprovalDecision string

const (
	DecisionApprove ApprovalDecision = "approve"
	DecisionReject  ApprovalDecision = "reject"
	DecisionEdit    ApprovalDecision = "edit"
)

// ApprovalRequest is a pending or decided HITL gate (§3, §4.C4).
type ApprovalRequest struct {
	RequestID      string         `json:"request_id"`
	Type           ApprovalType   `json:"type"`
	Subject        string         `json:"subject"`
	SessionID      string         `json:"session_id"`
	Details        map[string]any `json:"details,omitempty"`
	Reason         string         `json:"reason"`
	Status         ApprovalStatus `json:"status"`
	ModifiedArgs   map[string]any `json:"modified_arguments,omitempty"`
	Feedback       string         `json:"feedback,omitempty"`
	DecisionReason string         `json:"decision_reason,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	DecidedAt      time.Time      `json:"decided_at,omitempty"`
}

// IsPending reports whether this request still awaits a decision.
func (a ApprovalRequest) IsPending() bool {
	return a.Status == ApprovalPending
}
