// Package planstore persists plans keyed by id and by their owning
// conversation (§3, §4.C9), grounded on the conversation store's shape.
package planstore

import (
	"sync"

	"github.com/haasonsaas/agentcore/internal/errs"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// Store holds plans in memory, indexed by plan id and conversation id.
type Store struct {
	mu        sync.RWMutex
	plans     map[string]*models.Plan
	byConvoID map[string]string // conversationID -> most recent plan id
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		plans:     make(map[string]*models.Plan),
		byConvoID: make(map[string]string),
	}
}

// Save upserts a plan, tracking it as the conversation's current plan.
func (s *Store) Save(p *models.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = p
	s.byConvoID[p.ConversationID] = p.ID
}

// Get returns a plan by id.
func (s *Store) Get(id string) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, errs.ErrInvalidPlan
	}
	return p, nil
}

// CurrentForConversation returns the most recently saved plan for
// conversationID, if any.
func (s *Store) CurrentForConversation(conversationID string) (*models.Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byConvoID[conversationID]
	if !ok {
		return nil, false
	}
	p, ok := s.plans[id]
	return p, ok
}
