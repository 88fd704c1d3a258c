// Package dialogue implements the dialogue engine (§4.C7): one LLM turn for
// a single agent, composing the LLM client (C5), response processor (C6),
// agent/tool registries (C2, C3), and the HITL gate (C4), emitting a
// strictly ordered stream of tagged chunks.
package dialogue

import "github.com/haasonsaas/agentcore/pkg/models"

// ChunkType tags a StreamChunk's shape (§6).
type ChunkType string

const (
	ChunkAssistantMessage     ChunkType = "assistant_message"
	ChunkToolCall             ChunkType = "tool_call"
	ChunkToolResult           ChunkType = "tool_result"
	ChunkAgentSwitch          ChunkType = "agent_switch"
	ChunkError                ChunkType = "error"
	ChunkPlanApprovalRequired ChunkType = "plan_approval_required"
	ChunkSessionInfo          ChunkType = "session_info"
	ChunkDone                 ChunkType = "done"
)

// Chunk is one tagged record of turn progress (§6's stream chunk wire
// format). Only the fields relevant to Type are populated.
type Chunk struct {
	Type    ChunkType `json:"type"`
	IsFinal bool      `json:"isFinal"`

	Content string `json:"content,omitempty"`

	CallID           string         `json:"callId,omitempty"`
	ToolName         string         `json:"toolName,omitempty"`
	Arguments        map[string]any `json:"arguments,omitempty"`
	RequiresApproval bool           `json:"requiresApproval,omitempty"`

	ToolResultValue any    `json:"toolResult,omitempty"`
	ToolResultError string `json:"toolResultError,omitempty"`

	FromAgent models.AgentType `json:"fromAgent,omitempty"`
	ToAgent   models.AgentType `json:"toAgent,omitempty"`
	Reason    string           `json:"reason,omitempty"`

	Message string `json:"message,omitempty"`

	PlanID string `json:"planId,omitempty"`

	SessionID string `json:"sessionId,omitempty"`
}

func assistantMessage(content string) Chunk {
	return Chunk{Type: ChunkAssistantMessage, Content: content, IsFinal: true}
}

func toolCall(callID, toolName string, args map[string]any, requiresApproval bool) Chunk {
	return Chunk{Type: ChunkToolCall, CallID: callID, ToolName: toolName, Arguments: args, RequiresApproval: requiresApproval, IsFinal: true}
}

func agentSwitch(from, to models.AgentType, reason string) Chunk {
	return Chunk{Type: ChunkAgentSwitch, FromAgent: from, ToAgent: to, Reason: reason, IsFinal: true}
}

func errorChunk(message string) Chunk {
	return Chunk{Type: ChunkError, Message: message, IsFinal: true}
}
