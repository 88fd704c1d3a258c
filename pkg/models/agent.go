package models

import "time"

// AgentType is one of the fixed specialized agent identities.
type AgentType string

const (
	AgentOrchestrator AgentType = "orchestrator"
	AgentCoder        AgentType = "coder"
	AgentArchitect    AgentType = "architect"
	AgentDebug        AgentType = "debug"
	AgentAsk          AgentType = "ask"
	AgentUniversal    AgentType = "universal"
)

// SwitchRecord is one entry in an agent's switch history.
type SwitchRecord struct {
	From       AgentType `json:"from"`
	To         AgentType `json:"to"`
	Reason     string    `json:"reason"`
	Confidence string    `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Capabilities describes what an agent type is permitted to do, independent
// of any one conversation.
type Capabilities struct {
	AllowedTools     map[string]bool
	MaxSwitches      int
	CanDelegate      bool
	RequiresApproval bool
	FilePathAllowed  func(path string) bool
	SystemPromptID   string
	CanSwitchTo      map[AgentType]bool
}

// Agent is the per-conversation policy identity currently answering.
type Agent struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	CurrentType    AgentType      `json:"current_type"`
	SwitchCount    int            `json:"switch_count"`
	MaxSwitches    int            `json:"max_switches"`
	SwitchHistory  []SwitchRecord `json:"switch_history"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	LastSwitchAt   time.Time      `json:"last_switch_at,omitempty"`
}

// NewAgent creates an Agent starting as the orchestrator.
func NewAgent(id, conversationID string, initial AgentType, maxSwitches int, now time.Time) *Agent {
	return &Agent{
		ID:             id,
		ConversationID: conversationID,
		CurrentType:    initial,
		MaxSwitches:    maxSwitches,
		SwitchHistory:  make([]SwitchRecord, 0, 4),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
