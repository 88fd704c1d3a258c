// Package lock provides per-conversation mutual exclusion (§4.C12) using a
// sync.Map of per-key mutexes, so concurrent turns on the same conversation
// serialize without a single global lock.
package lock

import (
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when acquiring a lock times out.
var ErrLockTimeout = errors.New("lock: acquisition timeout")

// DefaultTimeout bounds how long a caller waits to acquire a conversation's
// lock before giving up.
const DefaultTimeout = 30 * time.Second

const pollInterval = 5 * time.Millisecond

// DefaultSoftCap is the number of unheld locks the cleanup pass will trim
// down to when the registry grows past it.
const DefaultSoftCap = 10000

type convoMutex struct {
	mu      sync.Mutex
	locked  bool
	lastUse time.Time
}

// Manager gives every conversation id an exclusive lock, lazily created on
// first use (§4.C12). Every externally-invoked use case (ProcessMessage,
// ProcessToolResult, HandleApproval) holds this lock for its entire flow.
type Manager struct {
	locks   sync.Map // map[string]*convoMutex
	timeout time.Duration
	softCap int
}

// NewManager creates a Manager with the given default acquisition timeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{timeout: timeout, softCap: DefaultSoftCap}
}

func (m *Manager) mutexFor(conversationID string) *convoMutex {
	if v, ok := m.locks.Load(conversationID); ok {
		return v.(*convoMutex)
	}
	actual, _ := m.locks.LoadOrStore(conversationID, &convoMutex{})
	return actual.(*convoMutex)
}

// Lock blocks until the conversation's lock is acquired or the default
// timeout elapses.
func (m *Manager) Lock(conversationID string) (func(), error) {
	return m.LockWithTimeout(conversationID, m.timeout)
}

// LockWithTimeout blocks until the conversation's lock is acquired or timeout
// elapses, returning an unlock function on success.
func (m *Manager) LockWithTimeout(conversationID string, timeout time.Duration) (func(), error) {
	cm := m.mutexFor(conversationID)
	deadline := time.Now().Add(timeout)

	for {
		cm.mu.Lock()
		if !cm.locked {
			cm.locked = true
			cm.lastUse = time.Now()
			cm.mu.Unlock()
			return func() { m.unlock(cm) }, nil
		}
		cm.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		time.Sleep(pollInterval)
	}
}

func (m *Manager) unlock(cm *convoMutex) {
	cm.mu.Lock()
	cm.locked = false
	cm.lastUse = time.Now()
	cm.mu.Unlock()
}

// Cleanup removes unheld locks once the registry exceeds the soft cap,
// oldest-unused first, bounding unbounded memory growth over a long-lived
// process (§4.C12).
func (m *Manager) Cleanup() int {
	type entry struct {
		key     string
		lastUse time.Time
	}
	var candidates []entry
	count := 0

	m.locks.Range(func(key, value any) bool {
		count++
		cm := value.(*convoMutex)
		cm.mu.Lock()
		if !cm.locked {
			candidates = append(candidates, entry{key: key.(string), lastUse: cm.lastUse})
		}
		cm.mu.Unlock()
		return true
	})

	if count <= m.softCap {
		return 0
	}

	removed := 0
	excess := count - m.softCap
	for _, c := range candidates {
		if removed >= excess {
			break
		}
		m.locks.Delete(c.key)
		removed++
	}
	return removed
}

// Size returns the number of tracked locks (held or not).
func (m *Manager) Size() int {
	n := 0
	m.locks.Range(func(_, _ any) bool { n++; return true })
	return n
}
