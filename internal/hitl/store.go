package hitl

import (
	"sync"
	"time"

	"github.com/haasonsaas/agentcore/internal/errs"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// Store persists HITL approval requests and their decisions (§4.C4).
type Store struct {
	mu      sync.Mutex
	pending map[string]*models.ApprovalRequest
	ttl     time.Duration
}

// DefaultTTL is how long a pending request survives before cleanup removes it.
const DefaultTTL = 15 * time.Minute

// NewStore creates an empty approval store.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{pending: make(map[string]*models.ApprovalRequest), ttl: ttl}
}

// AddPending inserts a pending approval record. A duplicate requestId is a
// no-op (idempotent).
func (s *Store) AddPending(requestID string, typ models.ApprovalType, subject, sessionID string, details map[string]any, reason string, now time.Time) *models.ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pending[requestID]; ok {
		return existing
	}

	req := &models.ApprovalRequest{
		RequestID: requestID,
		Type:      typ,
		Subject:   subject,
		SessionID: sessionID,
		Details:   details,
		Reason:    reason,
		Status:    models.ApprovalPending,
		CreatedAt: now,
	}
	s.pending[requestID] = req
	return req
}

// GetPending returns a pending request by id.
func (s *Store) GetPending(requestID string) (*models.ApprovalRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[requestID]
	return req, ok
}

// GetAllPending returns every pending request for sessionID, optionally
// filtered by type.
func (s *Store) GetAllPending(sessionID string, typ *models.ApprovalType) []*models.ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.ApprovalRequest
	for _, req := range s.pending {
		if req.SessionID != sessionID || !req.IsPending() {
			continue
		}
		if typ != nil && req.Type != *typ {
			continue
		}
		out = append(out, req)
	}
	return out
}

// CountPending returns the number of pending requests for sessionID.
func (s *Store) CountPending(sessionID string) int {
	return len(s.GetAllPending(sessionID, nil))
}

// Approve transitions a pending request to approved. Legal only from pending.
func (s *Store) Approve(requestID string, modifiedArgs map[string]any, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.pending[requestID]
	if !ok {
		return errs.ErrApprovalNotFound
	}
	if !req.IsPending() {
		return errs.ErrApprovalTerminal
	}
	req.Status = models.ApprovalApproved
	req.ModifiedArgs = modifiedArgs
	req.DecidedAt = now
	return nil
}

// Reject transitions a pending request to rejected. Legal only from pending.
func (s *Store) Reject(requestID, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.pending[requestID]
	if !ok {
		return errs.ErrApprovalNotFound
	}
	if !req.IsPending() {
		return errs.ErrApprovalTerminal
	}
	req.Status = models.ApprovalRejected
	req.DecisionReason = reason
	req.DecidedAt = now
	return nil
}

// CleanupExpired removes pending requests older than the store's ttl for the
// given session.
func (s *Store) CleanupExpired(sessionID string, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, req := range s.pending {
		if req.SessionID != sessionID || !req.IsPending() {
			continue
		}
		if now.Sub(req.CreatedAt) > s.ttl {
			delete(s.pending, id)
			removed++
		}
	}
	return removed
}
