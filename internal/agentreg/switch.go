package agentreg

import (
	"time"

	"github.com/haasonsaas/agentcore/internal/errs"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// Switch records a change of agent.CurrentType, enforcing maxSwitches
// (§8 boundary behaviour: at maxSwitches, one more switch fails with
// SwitchLimit and currentType is unchanged).
func Switch(agent *models.Agent, to models.AgentType, reason, confidence string, now time.Time) error {
	if agent.SwitchCount >= agent.MaxSwitches {
		return errs.ErrSwitchLimit
	}

	record := models.SwitchRecord{From: agent.CurrentType, To: to, Reason: reason, Confidence: confidence, Timestamp: now}
	agent.SwitchHistory = append(agent.SwitchHistory, record)
	agent.CurrentType = to
	agent.SwitchCount++
	agent.LastSwitchAt = now
	agent.UpdatedAt = now
	return nil
}
