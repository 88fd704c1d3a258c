// Package usecase wires together the core's components behind the three
// externally invoked entry points (§4.C15): ProcessMessage,
// ProcessToolResult, and HandleApproval. Each acquires the conversation's
// session lock (C12) for its entire flow.
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/haasonsaas/agentcore/internal/agentreg"
	"github.com/haasonsaas/agentcore/internal/agentstore"
	"github.com/haasonsaas/agentcore/internal/classify"
	"github.com/haasonsaas/agentcore/internal/convo"
	"github.com/haasonsaas/agentcore/internal/dialogue"
	"github.com/haasonsaas/agentcore/internal/errs"
	"github.com/haasonsaas/agentcore/internal/eventbus"
	"github.com/haasonsaas/agentcore/internal/hitl"
	"github.com/haasonsaas/agentcore/internal/lock"
	"github.com/haasonsaas/agentcore/internal/observability"
	"github.com/haasonsaas/agentcore/internal/plan"
	"github.com/haasonsaas/agentcore/internal/planexec"
	"github.com/haasonsaas/agentcore/internal/planstore"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// classifyTargetToAgentType maps the classifier's targetAgent string (§4.C8)
// onto the fixed agent-type table (§4.C2).
var classifyTargetToAgentType = map[string]models.AgentType{
	"code":    models.AgentCoder,
	"explain": models.AgentAsk,
	"plan":    models.AgentOrchestrator,
}

// Service composes every core component behind the three use cases.
type Service struct {
	Locks     *lock.Manager
	Convo     *convo.Store
	Agents    *agentstore.Store
	AgentReg  *agentreg.Registry
	Plans     *planstore.Store
	Approvals *hitl.Store
	Engine    *dialogue.Engine
	Planner   *planexec.Coordinator
	Bus       *eventbus.Bus
	Classify  classify.LLMCaller
	Logger    *observability.Logger

	DefaultMaxSwitches int
}

func (s *Service) publish(ctx context.Context, typ observability.EventType, name string, data map[string]any) {
	if s.Bus == nil {
		return
	}
	s.Bus.Publish(ctx, &observability.Event{Type: typ, Name: name, Data: data})
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Info(ctx, msg, args...)
	}
}

func (s *Service) logError(ctx context.Context, msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Error(ctx, msg, args...)
	}
}

func (s *Service) maxSwitches() int {
	if s.DefaultMaxSwitches > 0 {
		return s.DefaultMaxSwitches
	}
	return 50
}

// ProcessMessage handles one inbound user message (§4.C15): it appends the
// message, classifies it (unless forcedAgentType pins the target), and
// either runs a single atomic turn or kicks off plan execution. It returns
// the dialogue engine's chunk stream for the turn actually run.
func (s *Service) ProcessMessage(ctx context.Context, conversationID, userMessage string, forcedAgentType models.AgentType) (<-chan dialogue.Chunk, error) {
	unlock, err := s.Locks.Lock(conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.logInfo(ctx, "process message started", "conversation_id", conversationID)

	now := time.Now()
	conv, err := s.Convo.FindByID(conversationID)
	if err != nil {
		conv = s.Convo.Create(conversationID, now)
	}
	if err := s.Convo.AppendMessage(conv, models.Message{Role: models.RoleUser, Content: userMessage, Timestamp: now}, now); err != nil {
		s.logError(ctx, "process message failed", "conversation_id", conversationID, "error", err.Error())
		return nil, err
	}

	agent := s.Agents.GetOrCreate(conversationID, models.AgentOrchestrator, s.maxSwitches(), now)

	target := forcedAgentType
	var classification classify.Result
	if target == "" {
		classification = classify.Classify(ctx, s.Classify, userMessage)
		target = classifyTargetToAgentType[classification.TargetAgent]
		if target == "" {
			target = models.AgentCoder
		}
	}

	if target != agent.CurrentType {
		if err := agentreg.Switch(agent, target, "task classification", string(classification.Confidence), now); err != nil && err != errs.ErrSwitchLimit {
			return nil, err
		}
		s.publish(ctx, observability.EventAgentSwitched, "agent switched for new task", map[string]any{"from": string(agent.CurrentType), "to": string(target)})
	}

	if classification.TargetAgent == "plan" || target == models.AgentOrchestrator {
		return s.runAsPlan(ctx, conv, agent, userMessage, now)
	}

	return s.Engine.Turn(ctx, conv, agent), nil
}

// runAsPlan builds a single-subtask plan from the user's goal and drives it
// to completion (or to an approval pause) via the plan execution
// coordinator, surfacing the final chunk of whichever subtask runs.
//
// The planner's LLM-driven decomposition into multiple subtasks (§4.C9) is
// out of this wiring's scope; a coarse one-subtask plan stands in so the
// coordinator, dependency resolver, and HITL pause/resume path are
// exercised end to end.
func (s *Service) runAsPlan(ctx context.Context, conv *models.Conversation, agent *models.Agent, goal string, now time.Time) (<-chan dialogue.Chunk, error) {
	specs := []models.SubtaskSpec{{ID: "s1", Description: goal, TargetAgent: models.AgentCoder}}
	planID := fmt.Sprintf("plan-%s-%d", conv.ID, now.UnixNano())

	p, err := plan.CreatePlan(conv.ID, planID, goal, specs, now)
	if err != nil {
		return nil, err
	}
	if err := plan.ApprovePlan(p, now); err != nil {
		return nil, err
	}
	s.Plans.Save(p)
	s.publish(ctx, observability.EventPlanCreated, goal, map[string]any{"plan_id": p.ID})

	out := make(chan dialogue.Chunk, 1)
	go func() {
		defer close(out)
		outcome, err := s.Planner.ExecutePlan(ctx, conv, p, agent)
		s.Plans.Save(p)
		switch {
		case err != nil:
			out <- dialogue.Chunk{Type: dialogue.ChunkError, Message: err.Error(), IsFinal: true}
		case outcome == planexec.OutcomeWaiting:
			out <- dialogue.Chunk{Type: dialogue.ChunkPlanApprovalRequired, PlanID: p.ID, IsFinal: true}
		default:
			result, _ := s.Convo.GetLastAssistantMessage(conv)
			out <- dialogue.Chunk{Type: dialogue.ChunkDone, Content: result.Content, PlanID: p.ID, IsFinal: true}
		}
	}()
	return out, nil
}

// ProcessToolResult appends a tool's outcome to the conversation and
// continues the turn (§4.C15). callID must reference the conversation's
// most recent outstanding tool call, else ErrToolCallNotFound.
func (s *Service) ProcessToolResult(ctx context.Context, conversationID, callID string, result any, toolErr string) (<-chan dialogue.Chunk, error) {
	unlock, err := s.Locks.Lock(conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.logInfo(ctx, "process tool result started", "conversation_id", conversationID, "call_id", callID)

	conv, err := s.Convo.FindByID(conversationID)
	if err != nil {
		return nil, err
	}
	if !outstandingToolCall(conv, callID) {
		s.logError(ctx, "tool result for unknown call", "conversation_id", conversationID, "call_id", callID)
		return nil, errs.ErrToolCallNotFound
	}

	now := time.Now()
	content := toolErr
	if content == "" {
		content = fmt.Sprintf("%v", result)
	}
	msg := models.Message{Role: models.RoleTool, Content: content, ToolCallID: callID, Timestamp: now}
	if err := s.Convo.AppendMessage(conv, msg, now); err != nil {
		return nil, err
	}

	agent := s.Agents.GetOrCreate(conversationID, models.AgentOrchestrator, s.maxSwitches(), now)
	return s.Engine.Turn(ctx, conv, agent), nil
}

func outstandingToolCall(conv *models.Conversation, callID string) bool {
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		m := conv.Messages[i]
		if m.Role != models.RoleAssistant || !m.HasToolCalls() {
			continue
		}
		for _, tc := range m.ToolCalls {
			if tc.ID == callID {
				return true
			}
		}
		return false
	}
	return false
}

// HandleApproval resolves a pending HITL decision (§4.C15): approving or
// rejecting a tool call resumes the plan it paused, if any; otherwise it
// just records the decision.
func (s *Service) HandleApproval(ctx context.Context, conversationID, requestID string, decision models.ApprovalDecision, modifiedArgs map[string]any, feedback string) (<-chan dialogue.Chunk, error) {
	unlock, err := s.Locks.Lock(conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.logInfo(ctx, "handle approval started", "conversation_id", conversationID, "request_id", requestID, "decision", string(decision))

	now := time.Now()
	switch decision {
	case models.DecisionApprove, models.DecisionEdit:
		if err := s.Approvals.Approve(requestID, modifiedArgs, now); err != nil {
			s.logError(ctx, "approval resolution failed", "request_id", requestID, "error", err.Error())
			return nil, err
		}
	case models.DecisionReject:
		if err := s.Approvals.Reject(requestID, feedback, now); err != nil {
			s.logError(ctx, "approval resolution failed", "request_id", requestID, "error", err.Error())
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown approval decision %q", decision)
	}
	s.publish(ctx, observability.EventHITLDecisionMade, requestID, map[string]any{"approval_type": "tool", "decision": string(decision)})

	conv, err := s.Convo.FindByID(conversationID)
	if err != nil {
		return nil, err
	}
	agent := s.Agents.GetOrCreate(conversationID, models.AgentOrchestrator, s.maxSwitches(), now)

	p, ok := s.Plans.CurrentForConversation(conversationID)
	if !ok || p.ExecState != models.ExecWaitingApproval {
		return s.Engine.Turn(ctx, conv, agent), nil
	}

	out := make(chan dialogue.Chunk, 1)
	go func() {
		defer close(out)
		outcome, err := s.Planner.Resume(ctx, conv, p, agent, decision != models.DecisionReject, feedback)
		s.Plans.Save(p)
		switch {
		case err != nil:
			out <- dialogue.Chunk{Type: dialogue.ChunkError, Message: err.Error(), IsFinal: true}
		case outcome == planexec.OutcomeWaiting:
			out <- dialogue.Chunk{Type: dialogue.ChunkPlanApprovalRequired, PlanID: p.ID, IsFinal: true}
		default:
			result, _ := s.Convo.GetLastAssistantMessage(conv)
			out <- dialogue.Chunk{Type: dialogue.ChunkDone, Content: result.Content, PlanID: p.ID, IsFinal: true}
		}
	}()
	return out, nil
}
