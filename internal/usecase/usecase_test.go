package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/agentcore/internal/agentreg"
	"github.com/haasonsaas/agentcore/internal/agentstore"
	"github.com/haasonsaas/agentcore/internal/convo"
	"github.com/haasonsaas/agentcore/internal/dialogue"
	"github.com/haasonsaas/agentcore/internal/eventbus"
	"github.com/haasonsaas/agentcore/internal/hitl"
	"github.com/haasonsaas/agentcore/internal/infra"
	"github.com/haasonsaas/agentcore/internal/llm"
	"github.com/haasonsaas/agentcore/internal/lock"
	"github.com/haasonsaas/agentcore/internal/planexec"
	"github.com/haasonsaas/agentcore/internal/planstore"
	"github.com/haasonsaas/agentcore/internal/toolreg"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// stubLLM scripts one response per call, repeating the last past the end.
type stubLLM struct {
	responses []*llm.Response
	n         int
}

func (s *stubLLM) ChatCompletion(ctx context.Context, model string, messages []models.Message, tools []models.ToolSpec) (*llm.Response, error) {
	i := s.n
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.n++
	return s.responses[i], nil
}

// stubClassifier never calls an LLM; it returns scripted raw JSON text.
type stubClassifier struct {
	raw string
}

func (s *stubClassifier) Classify(ctx context.Context, userMessage string) (string, error) {
	return s.raw, nil
}

func newTestService(t *testing.T, caller dialogue.LLMCaller, classifierJSON string) *Service {
	t.Helper()
	convoStore := convo.NewStore(0)
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "llm", FailureThreshold: 5, Timeout: time.Minute})
	bus := eventbus.New(nil)

	engine := &dialogue.Engine{
		Model:       "test-model",
		LLM:         caller,
		Circuit:     cb,
		RetryConfig: &infra.RetryConfig{MaxAttempts: 0},
		Convo:       convoStore,
		Agents:      agentreg.NewDefaultRegistry(),
		Tools:       toolreg.NewDefaultRegistry(),
		Approvals:   hitl.NewStore(time.Minute),
		Policy:      hitl.DefaultPolicy(),
		Bus:         bus,
	}

	return &Service{
		Locks:     lock.NewManager(time.Second),
		Convo:     convoStore,
		Agents:    agentstore.NewStore(),
		AgentReg:  engine.Agents,
		Plans:     planstore.NewStore(),
		Approvals: engine.Approvals,
		Engine:    engine,
		Planner:   planexec.New(convoStore, engine, bus),
		Bus:       bus,
		Classify:  &stubClassifier{raw: classifierJSON},
	}
}

func drain(t *testing.T, ch <-chan dialogue.Chunk) []dialogue.Chunk {
	t.Helper()
	var out []dialogue.Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

// Scenario 1: an atomic message classifies to "code", runs one turn, and
// produces a single final assistant_message chunk.
func TestProcessMessageAtomicHappyPath(t *testing.T) {
	caller := &stubLLM{responses: []*llm.Response{{Content: "fixed the bug"}}}
	svc := newTestService(t, caller, `{"isAtomic": true, "targetAgent": "code", "confidence": "high", "reason": "clear code task"}`)

	ch, err := svc.ProcessMessage(context.Background(), "c1", "fix the null pointer in foo.go", "")
	require.NoError(t, err)

	chunks := drain(t, ch)
	require.Len(t, chunks, 1)
	require.Equal(t, dialogue.ChunkAssistantMessage, chunks[0].Type)
	require.Equal(t, "fixed the bug", chunks[0].Content)

	agent, ok := svc.Agents.Get("c1")
	require.True(t, ok)
	require.Equal(t, models.AgentCoder, agent.CurrentType)

	conv, err := svc.Convo.FindByID("c1")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2) // user + assistant
}

// ProcessMessage with a forced agent type skips classification entirely.
func TestProcessMessageForcedAgentSkipsClassification(t *testing.T) {
	caller := &stubLLM{responses: []*llm.Response{{Content: "explained"}}}
	svc := newTestService(t, caller, `garbage that would fail to parse`)

	ch, err := svc.ProcessMessage(context.Background(), "c1", "what does this do?", models.AgentAsk)
	require.NoError(t, err)

	chunks := drain(t, ch)
	require.Len(t, chunks, 1)
	require.Equal(t, "explained", chunks[0].Content)

	agent, ok := svc.Agents.Get("c1")
	require.True(t, ok)
	require.Equal(t, models.AgentAsk, agent.CurrentType)
}

// A message that requires a tool approval: ProcessMessage emits a tool_call
// chunk, and ProcessToolResult afterward continues the same conversation.
func TestProcessToolResultContinuesAfterApproval(t *testing.T) {
	caller := &stubLLM{responses: []*llm.Response{
		{ToolCalls: []models.ToolCall{{ID: "call-1", ToolName: "write_file", Arguments: map[string]any{"path": "a.go", "content": "x"}}}},
		{Content: "applied the edit"},
	}}
	svc := newTestService(t, caller, `{"isAtomic": true, "targetAgent": "code", "confidence": "high", "reason": "edit"}`)

	ch, err := svc.ProcessMessage(context.Background(), "c1", "edit a.go", "")
	require.NoError(t, err)
	chunks := drain(t, ch)
	require.Len(t, chunks, 1)
	require.Equal(t, dialogue.ChunkToolCall, chunks[0].Type)
	require.True(t, chunks[0].RequiresApproval)

	ch2, err := svc.ProcessToolResult(context.Background(), "c1", "call-1", "wrote 12 bytes", "")
	require.NoError(t, err)
	chunks2 := drain(t, ch2)
	require.Len(t, chunks2, 1)
	require.Equal(t, dialogue.ChunkAssistantMessage, chunks2[0].Type)
	require.Equal(t, "applied the edit", chunks2[0].Content)
}

func TestProcessToolResultRejectsUnknownCallID(t *testing.T) {
	caller := &stubLLM{responses: []*llm.Response{{Content: "hi"}}}
	svc := newTestService(t, caller, `{"isAtomic": true, "targetAgent": "code", "confidence": "high", "reason": "x"}`)

	_, err := svc.ProcessMessage(context.Background(), "c1", "say hi", "")
	require.NoError(t, err)

	_, err = svc.ProcessToolResult(context.Background(), "c1", "not-a-call", "oops", "")
	require.Error(t, err)
}
