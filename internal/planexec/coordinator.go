// Package planexec implements the plan execution coordinator (§4.C11): it
// drives a plan's subtasks to completion in dependency order, one at a time,
// isolating each subtask's conversation context and propagating dependency
// results and dependency failures.
package planexec

import (
	"context"
	"fmt"
	"time"

	"github.com/haasonsaas/agentcore/internal/agentreg"
	"github.com/haasonsaas/agentcore/internal/convo"
	"github.com/haasonsaas/agentcore/internal/depgraph"
	"github.com/haasonsaas/agentcore/internal/dialogue"
	"github.com/haasonsaas/agentcore/internal/errs"
	"github.com/haasonsaas/agentcore/internal/eventbus"
	"github.com/haasonsaas/agentcore/internal/observability"
	"github.com/haasonsaas/agentcore/internal/plan"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// Coordinator drives one plan's subtasks to completion, composing the
// dependency resolver (C10), the dialogue engine (C7), and the conversation
// store's snapshot isolation (C1).
type Coordinator struct {
	Convo  *convo.Store
	Engine *dialogue.Engine
	Bus    *eventbus.Bus
	Tracer *observability.Tracer

	// Resumptions holds one pending resumption record per plan waiting on
	// approval, keyed by plan id. A real deployment persists this
	// alongside the plan; in-memory here mirrors the other process-wide
	// stores (§5).
	Resumptions map[string]models.ResumptionRecord

	// depResults accumulates completed subtasks' condensed results per
	// plan, consulted when building a dependent subtask's context message.
	depResults map[string][]models.DependencyResult
}

// New builds a Coordinator with empty resumption/result bookkeeping.
func New(convoStore *convo.Store, engine *dialogue.Engine, bus *eventbus.Bus) *Coordinator {
	return &Coordinator{
		Convo:       convoStore,
		Engine:      engine,
		Bus:         bus,
		Resumptions: make(map[string]models.ResumptionRecord),
		depResults:  make(map[string][]models.DependencyResult),
	}
}

// Outcome is the terminal result of driving a plan, possibly paused.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeWaiting   Outcome = "waiting_approval"
)

func (c *Coordinator) publish(ctx context.Context, typ observability.EventType, name string, data map[string]any) {
	if c.Bus == nil {
		return
	}
	c.Bus.Publish(ctx, &observability.Event{Type: typ, Name: name, Data: data})
}

// startSpan opens a subtask-scoped span when a tracer is configured,
// returning a no-op end func otherwise so callers can defer unconditionally.
func (c *Coordinator) startSpan(ctx context.Context, name string) (context.Context, func(err error)) {
	if c.Tracer == nil {
		return ctx, func(error) {}
	}
	spanCtx, span := c.Tracer.Start(ctx, name)
	return spanCtx, func(err error) {
		if err != nil {
			c.Tracer.RecordError(span, err)
		}
		span.End()
	}
}

// ExecutePlan drives plan forward from its current state, running ready
// subtasks one at a time in dependency order until the plan completes,
// fails, deadlocks, or pauses waiting on an approval (§4.C11).
func (c *Coordinator) ExecutePlan(ctx context.Context, conv *models.Conversation, p *models.Plan, agent *models.Agent) (Outcome, error) {
	ctx = observability.AddPlanID(ctx, p.ID)

	if p.Status == models.PlanApproved {
		if err := plan.StartPlan(p, time.Now()); err != nil {
			return OutcomeFailed, err
		}
		c.publish(ctx, observability.EventPlanApproved, "plan started", nil)
	}

	for {
		if err := c.propagateUpstreamFailures(ctx, p); err != nil {
			plan.FailPlan(p, time.Now())
			c.publish(ctx, observability.EventPlanFailed, err.Error(), nil)
			return OutcomeFailed, err
		}

		if allSubtasksTerminal(p) {
			if anySubtaskFailed(p) {
				plan.FailPlan(p, time.Now())
				c.publish(ctx, observability.EventPlanFailed, "one or more subtasks failed", nil)
				return OutcomeFailed, nil
			}
			plan.CompletePlan(p, time.Now())
			c.publish(ctx, observability.EventPlanCompleted, "plan completed", nil)
			return OutcomeCompleted, nil
		}

		ready := depgraph.GetReadySubtasks(p)
		if len(ready) == 0 {
			if !anySubtaskRunning(p) {
				plan.FailPlan(p, time.Now())
				err := errs.ErrPlanDeadlock
				c.publish(ctx, observability.EventPlanFailed, err.Error(), nil)
				return OutcomeFailed, err
			}
			return OutcomeWaiting, nil
		}

		outcome, err := c.executeSubtask(ctx, conv, p, &ready[0], agent)
		if err != nil || outcome == OutcomeWaiting {
			return outcome, err
		}
	}
}

// executeSubtask runs one subtask to completion or to a paused state,
// isolating the conversation via a snapshot and restoring it afterward
// (§4.C11).
func (c *Coordinator) executeSubtask(ctx context.Context, conv *models.Conversation, p *models.Plan, st *models.Subtask, agent *models.Agent) (Outcome, error) {
	ctx = observability.AddSubtaskID(ctx, st.ID)
	ctx, endSpan := c.startSpan(ctx, "planexec.subtask")
	var spanErr error
	defer func() { endSpan(spanErr) }()

	now := time.Now()

	plan.MarkSubtask(p, st.ID, models.SubtaskRunning, "", "", now)
	p.CurrentSubtaskID = st.ID
	c.publish(ctx, observability.EventSubtaskStarted, st.Description, map[string]any{"agent": string(st.TargetAgent)})

	snap := c.Convo.CreateSnapshot(conv, now)

	if agent.CurrentType != st.TargetAgent {
		c.Convo.ClearToolMessagesWithContext(conv, agent.CurrentType, st.TargetAgent, now)
		if err := agentreg.Switch(agent, st.TargetAgent, "plan subtask assignment", "high", now); err != nil {
			spanErr = err
			c.failSubtask(ctx, conv, p, st, snap, err)
			return OutcomeFailed, err
		}
	}

	contextMsg := models.Message{
		Role:      models.RoleSystem,
		Content:   c.subtaskContextMessage(p, st),
		Timestamp: now,
	}
	if err := c.Convo.AppendMessage(conv, contextMsg, now); err != nil {
		spanErr = err
		c.failSubtask(ctx, conv, p, st, snap, err)
		return OutcomeFailed, err
	}

	outcome, err := c.runSubtaskTurns(ctx, conv, p, st, agent, snap)
	spanErr = err
	return outcome, err
}

// runSubtaskTurns drives the dialogue engine for st until it reaches a
// terminal or paused chunk, reusing snap as the isolation point to restore
// to on completion or failure. Both a subtask's first attempt and its
// resumption after an approval decision converge here.
func (c *Coordinator) runSubtaskTurns(ctx context.Context, conv *models.Conversation, p *models.Plan, st *models.Subtask, agent *models.Agent, snap models.Snapshot) (Outcome, error) {
	// A subtask may span several turns: an agent_switch chunk resolves to
	// delegated work under the new agent type rather than ending the
	// subtask, so the loop re-invokes Turn once per round until the
	// subtask reaches a terminal or paused chunk.
	for {
		chunk, ok := <-c.Engine.Turn(ctx, conv, agent)
		if !ok {
			return OutcomeCompleted, nil
		}

		switch chunk.Type {
		case dialogue.ChunkError:
			err := fmt.Errorf("%s", chunk.Message)
			c.failSubtask(ctx, conv, p, st, snap, err)
			return OutcomeFailed, nil

		case dialogue.ChunkAgentSwitch:
			agent.CurrentType = chunk.ToAgent
			continue

		case dialogue.ChunkToolCall:
			// Tool execution happens on the remote editor host, out of
			// scope here (§1); whether or not the call needs HITL
			// approval, the subtask pauses until ProcessToolResult (C15)
			// supplies the outcome and the plan is resumed.
			c.pauseForApproval(ctx, p, st, snap)
			return OutcomeWaiting, nil

		case dialogue.ChunkAssistantMessage:
			result, _ := c.Convo.GetLastAssistantMessage(conv)
			completed := time.Now()
			plan.MarkSubtask(p, st.ID, models.SubtaskDone, result.Content, "", completed)

			restored := snap
			restored.Messages = append(restored.Messages, result)
			if err := c.Convo.RestoreFromSnapshot(conv, restored, completed); err != nil {
				return OutcomeFailed, err
			}

			c.depResults[p.ID] = append(c.depResults[p.ID], models.DependencyResult{
				SubtaskID:     st.ID,
				Description:   st.Description,
				Agent:         st.TargetAgent,
				ResultPreview: result.Content,
			})
			c.publish(ctx, observability.EventSubtaskCompleted, st.Description, nil)
			return OutcomeCompleted, nil

		default:
			return OutcomeCompleted, nil
		}
	}
}

func (c *Coordinator) failSubtask(ctx context.Context, conv *models.Conversation, p *models.Plan, st *models.Subtask, snap models.Snapshot, cause error) {
	now := time.Now()
	plan.MarkSubtask(p, st.ID, models.SubtaskFailed, "", cause.Error(), now)
	_ = c.Convo.RestoreFromSnapshot(conv, snap, now)
	c.publish(ctx, observability.EventSubtaskFailed, cause.Error(), nil)
}

func (c *Coordinator) pauseForApproval(ctx context.Context, p *models.Plan, st *models.Subtask, snap models.Snapshot) {
	plan.TransitionExec(p, models.ExecWaitingApproval, "subtask tool call requires approval", time.Now())
	c.Resumptions[p.ID] = models.ResumptionRecord{PlanID: p.ID, SubtaskID: st.ID, Snapshot: snap}
	c.publish(ctx, observability.EventToolApprovalRequested, st.Description, map[string]any{"approval_type": "tool", "subtask_id": st.ID})
}

// Resume continues a plan previously paused by pauseForApproval, once the
// caller has resolved the outstanding HITL decision (§4.C11, §8 scenario 6).
func (c *Coordinator) Resume(ctx context.Context, conv *models.Conversation, p *models.Plan, agent *models.Agent, approved bool, rejectReason string) (Outcome, error) {
	if p.ExecState != models.ExecWaitingApproval {
		return OutcomeFailed, fmt.Errorf("plan %s is not waiting on an approval", p.ID)
	}

	rec, ok := c.Resumptions[p.ID]
	if !ok {
		return OutcomeFailed, fmt.Errorf("no resumption record for plan %s", p.ID)
	}
	delete(c.Resumptions, p.ID)

	now := time.Now()
	if !approved {
		plan.TransitionExec(p, models.ExecCancelled, rejectReason, now)
		if err := c.Convo.RestoreFromSnapshot(conv, rec.Snapshot, now); err != nil {
			return OutcomeFailed, err
		}
		if st := p.SubtaskByID(rec.SubtaskID); st != nil {
			plan.MarkSubtask(p, st.ID, models.SubtaskFailed, "", "rejected by approver", now)
		}
		plan.CancelPlan(p, now)
		return OutcomeFailed, nil
	}

	plan.TransitionExec(p, models.ExecResumed, "approval granted", now)
	plan.TransitionExec(p, models.ExecRunning, "resuming plan execution", now)

	st := p.SubtaskByID(rec.SubtaskID)
	if st == nil {
		return OutcomeFailed, fmt.Errorf("resumption subtask %s no longer exists on plan %s", rec.SubtaskID, p.ID)
	}
	outcome, err := c.runSubtaskTurns(ctx, conv, p, st, agent, rec.Snapshot)
	if err != nil || outcome != OutcomeCompleted {
		return outcome, err
	}

	// The resumed subtask is done; let the ready-queue loop pick up the
	// rest of the plan's dependency order from here.
	return c.ExecutePlan(ctx, conv, p, agent)
}

// propagateUpstreamFailures walks every failed subtask's transitive
// dependents and marks them failed too (§8 scenario 3), so a dependency
// chain never deadlocks waiting on a subtask that will never run.
func (c *Coordinator) propagateUpstreamFailures(ctx context.Context, p *models.Plan) error {
	for _, st := range p.Subtasks {
		if st.Status != models.SubtaskFailed {
			continue
		}
		for _, dep := range depgraph.GetTransitiveDependents(p, st.ID) {
			if dep.Status == models.SubtaskFailed || dep.Status == models.SubtaskDone {
				continue
			}
			plan.MarkSubtask(p, dep.ID, models.SubtaskFailed, "", errs.ErrUpstreamDependencyFailed.Error(), time.Now())
			c.publish(ctx, observability.EventSubtaskFailed, "upstream dependency failed", map[string]any{"subtask_id": dep.ID})
		}
	}
	return nil
}

func (c *Coordinator) subtaskContextMessage(p *models.Plan, st *models.Subtask) string {
	msg := fmt.Sprintf("Working on subtask %q: %s", st.ID, st.Description)
	for dep := range st.Dependencies {
		for _, r := range c.depResults[p.ID] {
			if r.SubtaskID == dep {
				msg += fmt.Sprintf("\n\nDependency %q result: %s", dep, r.ResultPreview)
			}
		}
	}
	return msg
}

func allSubtasksTerminal(p *models.Plan) bool {
	for _, st := range p.Subtasks {
		if st.Status != models.SubtaskDone && st.Status != models.SubtaskFailed {
			return false
		}
	}
	return true
}

func anySubtaskFailed(p *models.Plan) bool {
	for _, st := range p.Subtasks {
		if st.Status == models.SubtaskFailed {
			return true
		}
	}
	return false
}

func anySubtaskRunning(p *models.Plan) bool {
	for _, st := range p.Subtasks {
		if st.Status == models.SubtaskRunning {
			return true
		}
	}
	return false
}
