package lock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockExcludesConcurrentHolders(t *testing.T) {
	m := NewManager(time.Second)
	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock("c1")
			require.NoError(t, err)
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&maxActive)
				if n <= old || atomic.CompareAndSwapInt32(&maxActive, old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), maxActive)
}

func TestDifferentConversationsDoNotBlockEachOther(t *testing.T) {
	m := NewManager(time.Second)
	unlock1, err := m.Lock("c1")
	require.NoError(t, err)
	defer unlock1()

	unlock2, err := m.LockWithTimeout("c2", 50*time.Millisecond)
	require.NoError(t, err)
	unlock2()
}

func TestLockTimesOutWhenHeld(t *testing.T) {
	m := NewManager(time.Second)
	unlock, err := m.Lock("c1")
	require.NoError(t, err)
	defer unlock()

	_, err = m.LockWithTimeout("c1", 20*time.Millisecond)
	require.ErrorIs(t, err, ErrLockTimeout)
}

func TestCleanupTrimsUnheldLocksPastSoftCap(t *testing.T) {
	m := NewManager(time.Second)
	m.softCap = 2

	for i := 0; i < 5; i++ {
		unlock, err := m.Lock(string(rune('a' + i)))
		require.NoError(t, err)
		unlock()
	}
	require.Equal(t, 5, m.Size())

	removed := m.Cleanup()
	require.Equal(t, 3, removed)
	require.Equal(t, 2, m.Size())
}

func TestCleanupBelowSoftCapIsNoop(t *testing.T) {
	m := NewManager(time.Second)
	unlock, err := m.Lock("c1")
	require.NoError(t, err)
	unlock()

	require.Equal(t, 0, m.Cleanup())
}
