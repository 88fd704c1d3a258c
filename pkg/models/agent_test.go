package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewAgentStartsWithEmptySwitchHistory(t *testing.T) {
	now := time.Now()
	a := NewAgent("a1", "c1", AgentOrchestrator, 5, now)

	require.Equal(t, AgentOrchestrator, a.CurrentType)
	require.Equal(t, 0, a.SwitchCount)
	require.Empty(t, a.SwitchHistory)
	require.Equal(t, now, a.CreatedAt)
}
