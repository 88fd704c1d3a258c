// Package agentstore persists the one active Agent identity per
// conversation (§3), grounded on the conversation store's same
// map-of-pointers-behind-a-mutex shape.
package agentstore

import (
	"sync"
	"time"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// Store holds one Agent per conversation id.
type Store struct {
	mu     sync.RWMutex
	agents map[string]*models.Agent
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{agents: make(map[string]*models.Agent)}
}

// GetOrCreate returns the conversation's agent, creating one starting as
// initial if none exists yet.
func (s *Store) GetOrCreate(conversationID string, initial models.AgentType, maxSwitches int, now time.Time) *models.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.agents[conversationID]; ok {
		return a
	}
	a := models.NewAgent(conversationID, conversationID, initial, maxSwitches, now)
	s.agents[conversationID] = a
	return a
}

// Get returns the conversation's agent, if one has been created.
func (s *Store) Get(conversationID string) (*models.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[conversationID]
	return a, ok
}
