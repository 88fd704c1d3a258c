// Package plan implements the planner / plan model (§4.C9): constructing,
// validating, and advancing Plan aggregates through their lifecycle.
package plan

import (
	"time"

	"github.com/haasonsaas/agentcore/internal/depgraph"
	"github.com/haasonsaas/agentcore/internal/errs"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// CreatePlan builds a new plan in draft status from the planner's subtask
// specs, rejecting duplicate ids, self-dependencies, unresolved dependency
// ids, and cycles (§4.C9).
func CreatePlan(conversationID, id, goal string, specs []models.SubtaskSpec, now time.Time) (*models.Plan, error) {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if seen[s.ID] {
			return nil, errs.ErrInvalidPlan
		}
		seen[s.ID] = true
	}

	subtasks := make([]models.Subtask, 0, len(specs))
	for _, s := range specs {
		deps := make(map[string]bool, len(s.Dependencies))
		for _, d := range s.Dependencies {
			if d == s.ID {
				return nil, errs.ErrInvalidPlan
			}
			if !seen[d] {
				return nil, errs.ErrInvalidPlan
			}
			deps[d] = true
		}
		subtasks = append(subtasks, models.Subtask{
			ID:                s.ID,
			Description:       s.Description,
			TargetAgent:       s.TargetAgent,
			Dependencies:      deps,
			Status:            models.SubtaskPending,
			EstimatedDuration: s.EstimatedDuration,
		})
	}

	p := &models.Plan{
		ID:             id,
		ConversationID: conversationID,
		Goal:           goal,
		Status:         models.PlanDraft,
		Subtasks:       subtasks,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if depgraph.HasCycles(p) {
		return nil, errs.ErrInvalidPlan
	}

	return p, nil
}

// ApprovePlan advances a draft plan to approved.
func ApprovePlan(p *models.Plan, now time.Time) error {
	if p.Status != models.PlanDraft {
		return errs.ErrInvalidPlan
	}
	p.Status = models.PlanApproved
	p.ApprovedAt = now
	p.UpdatedAt = now
	return nil
}

// StartPlan advances an approved plan to in_progress.
func StartPlan(p *models.Plan, now time.Time) error {
	if p.Status != models.PlanApproved {
		return errs.ErrInvalidPlan
	}
	p.Status = models.PlanInProgress
	p.StartedAt = now
	p.ExecState = models.ExecRunning
	p.UpdatedAt = now
	return nil
}

// MarkSubtask enforces the subtask state machine (§3): pending → running →
// done|failed, and failed → pending (retry). Re-completing an already-done
// subtask is a no-op returning false.
func MarkSubtask(p *models.Plan, subtaskID string, status models.SubtaskStatus, result, errMsg string, now time.Time) bool {
	st := p.SubtaskByID(subtaskID)
	if st == nil {
		return false
	}

	if st.Status == models.SubtaskDone && status == models.SubtaskDone {
		return false
	}

	switch {
	case st.Status == models.SubtaskPending && status == models.SubtaskRunning:
		st.Status = models.SubtaskRunning
		st.StartedAt = now
	case st.Status == models.SubtaskRunning && (status == models.SubtaskDone || status == models.SubtaskFailed):
		st.Status = status
		st.CompletedAt = now
		st.Result = result
		st.Error = errMsg
	case st.Status == models.SubtaskFailed && status == models.SubtaskPending:
		st.Status = models.SubtaskPending
		st.Error = ""
	case status == models.SubtaskFailed:
		// allow marking failed directly for dependent-propagation use (§8 scenario 3)
		st.Status = models.SubtaskFailed
		st.CompletedAt = now
		st.Error = errMsg
	default:
		return false
	}

	p.UpdatedAt = now
	return true
}

// CompletePlan transitions a non-terminal plan to completed.
func CompletePlan(p *models.Plan, now time.Time) error {
	if p.Status.IsTerminal() {
		return errs.ErrInvalidPlan
	}
	p.Status = models.PlanCompleted
	p.ExecState = models.ExecCompleted
	p.CompletedAt = now
	p.UpdatedAt = now
	return nil
}

// FailPlan transitions a non-terminal plan to failed.
func FailPlan(p *models.Plan, now time.Time) error {
	if p.Status.IsTerminal() {
		return errs.ErrInvalidPlan
	}
	p.Status = models.PlanFailed
	p.ExecState = models.ExecFailed
	p.CompletedAt = now
	p.UpdatedAt = now
	return nil
}

// CancelPlan transitions a non-terminal plan to cancelled.
func CancelPlan(p *models.Plan, now time.Time) error {
	if p.Status.IsTerminal() {
		return errs.ErrInvalidPlan
	}
	p.Status = models.PlanCancelled
	p.ExecState = models.ExecCancelled
	p.CompletedAt = now
	p.UpdatedAt = now
	return nil
}

// TransitionExec records an execution-state change on the plan (§3's
// running/waiting_approval/resumed state machine).
func TransitionExec(p *models.Plan, to models.ExecutionState, reason string, now time.Time) {
	p.ExecHistory = append(p.ExecHistory, models.ExecTransition{From: p.ExecState, To: to, Reason: reason, Timestamp: now})
	p.ExecState = to
	p.UpdatedAt = now
}
