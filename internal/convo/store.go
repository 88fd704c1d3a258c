// Package convo implements the conversation store (§4.C1): an append-only
// message log per conversation with snapshot/restore and selective
// tool-message pruning.
package convo

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/haasonsaas/agentcore/internal/errs"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// Store persists conversations in memory, keyed by id. The core's stores are
// process-wide singletons (§5); a real deployment backs this with a database
// implementing the same interface, out of scope here (§1).
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	titleLength   int
}

// NewStore creates an empty Store. titleLength bounds the auto-generated
// title length (default 60, §4.C1).
func NewStore(titleLength int) *Store {
	if titleLength <= 0 {
		titleLength = models.DefaultTitleLength
	}
	return &Store{
		conversations: make(map[string]*models.Conversation),
		titleLength:   titleLength,
	}
}

// Create inserts a new active conversation.
func (s *Store) Create(id string, now time.Time) *models.Conversation {
	conv := models.NewConversation(id, now)
	s.mu.Lock()
	s.conversations[id] = conv
	s.mu.Unlock()
	return conv
}

// FindByID returns the conversation with the given id, or ErrConversationNotFound.
func (s *Store) FindByID(id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, errs.ErrConversationNotFound
	}
	return conv, nil
}

// Save upserts a conversation.
func (s *Store) Save(conv *models.Conversation) {
	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()
}

// Delete removes a conversation (a separate admin action per §3).
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.conversations, id)
	s.mu.Unlock()
}

// ListActive returns every active conversation.
func (s *Store) ListActive() []*models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

// Deactivate marks a conversation inactive, recording the reason in metadata.
func (s *Store) Deactivate(conv *models.Conversation, reason string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv.Active = false
	if conv.Metadata == nil {
		conv.Metadata = map[string]any{}
	}
	conv.Metadata["deactivation_reason"] = reason
	conv.UpdatedAt = now
}

// AppendMessage appends msg to conv's history (§4.C1). Fails with
// ErrConversationInactive when the conversation is deactivated, or
// ErrMessageLimit when the message cap is reached. On success, updates
// lastActivity and auto-sets the title from the first user message.
func (s *Store) AppendMessage(conv *models.Conversation, msg models.Message, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !conv.Active {
		return errs.ErrConversationInactive
	}
	maxMessages := conv.MaxMessages
	if maxMessages <= 0 {
		maxMessages = models.DefaultMaxMessages
	}
	if len(conv.Messages) >= maxMessages {
		return errs.ErrMessageLimit
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}

	conv.Messages = append(conv.Messages, msg)
	conv.LastActivity = now
	conv.UpdatedAt = now

	if conv.Title == "" && msg.Role == models.RoleUser {
		conv.Title = truncate(msg.Content, s.titleLength)
	}

	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// CreateSnapshot returns a deep copy of conv's message sequence and metadata.
func (s *Store) CreateSnapshot(conv *models.Conversation, now time.Time) models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := make([]models.Message, len(conv.Messages))
	copy(msgs, conv.Messages)

	meta := make(map[string]any, len(conv.Metadata))
	for k, v := range conv.Metadata {
		meta[k] = v
	}

	return models.Snapshot{
		ConversationID: conv.ID,
		Messages:       msgs,
		Metadata:       meta,
		CreatedAt:      now,
	}
}

// RestoreFromSnapshot replaces conv's message sequence with snap's copy,
// preserving conversation id and the active flag.
func (s *Store) RestoreFromSnapshot(conv *models.Conversation, snap models.Snapshot, now time.Time) error {
	if snap.ConversationID != conv.ID {
		return fmt.Errorf("snapshot belongs to conversation %s, not %s", snap.ConversationID, conv.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]models.Message, len(snap.Messages))
	copy(msgs, snap.Messages)
	conv.Messages = msgs

	meta := make(map[string]any, len(snap.Metadata))
	for k, v := range snap.Metadata {
		meta[k] = v
	}
	conv.Metadata = meta
	conv.UpdatedAt = now
	return nil
}

// ClearResult is the outcome of ClearToolMessagesWithContext.
type ClearResult struct {
	RemovedCount      int
	PreservedResult   string
	ContextMessage    string
	FinalMessageCount int
}

// ClearToolMessagesWithContext removes, in one pass, every assistant message
// carrying tool calls and every tool-role message; preserves user and system
// messages and the last tool-call-free assistant message (§4.C11 agent
// switch hygiene); appends a synthetic system message documenting the switch.
func (s *Store) ClearToolMessagesWithContext(conv *models.Conversation, fromAgent, toAgent models.AgentType, now time.Time) ClearResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.Message, 0, len(conv.Messages))
	var preserved *models.Message
	removed := 0

	for i := range conv.Messages {
		m := conv.Messages[i]
		switch {
		case m.Role == models.RoleAssistant && m.HasToolCalls():
			removed++
		case m.Role == models.RoleTool:
			removed++
		case m.Role == models.RoleAssistant && !m.HasToolCalls():
			// Keep only the most recent such message as the carried-forward result.
			copyMsg := m
			preserved = &copyMsg
		default:
			kept = append(kept, m)
		}
	}

	if preserved != nil {
		kept = append(kept, *preserved)
	}

	contextMsg := fmt.Sprintf("Agent switched from %s to %s", fromAgent, toAgent)
	kept = append(kept, models.Message{
		ID:        uuid.NewString(),
		Role:      models.RoleSystem,
		Content:   contextMsg,
		Timestamp: now,
	})

	conv.Messages = kept
	conv.UpdatedAt = now

	result := ClearResult{
		RemovedCount:      removed,
		ContextMessage:    contextMsg,
		FinalMessageCount: len(kept),
	}
	if preserved != nil {
		result.PreservedResult = preserved.Content
	}
	return result
}

// GetLastAssistantMessage returns the most recent assistant message with no
// tool calls, or false if none exists.
func (s *Store) GetLastAssistantMessage(conv *models.Conversation) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(conv.Messages) - 1; i >= 0; i-- {
		m := conv.Messages[i]
		if m.Role == models.RoleAssistant && !m.HasToolCalls() {
			return m, true
		}
	}
	return models.Message{}, false
}
