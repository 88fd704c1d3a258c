package eventbus

import (
	"context"

	"github.com/haasonsaas/agentcore/internal/observability"
)

// AuditHandler persists every event to an EventStore, forming the core's
// audit trail (§4.C13 "audit log writer").
type AuditHandler struct {
	store observability.EventStore
}

// NewAuditHandler creates a handler that records events into store.
func NewAuditHandler(store observability.EventStore) *AuditHandler {
	return &AuditHandler{store: store}
}

func (h *AuditHandler) Name() string { return "audit_log" }

func (h *AuditHandler) Handle(_ context.Context, event *observability.Event) {
	_ = h.store.Record(event)
}

// MetricsHandler translates published events into Prometheus metric
// updates (§4.C13 "metrics collector").
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler creates a handler wired to m.
func NewMetricsHandler(m *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: m}
}

func (h *MetricsHandler) Name() string { return "metrics_collector" }

func (h *MetricsHandler) Handle(_ context.Context, event *observability.Event) {
	switch event.Type {
	case observability.EventRequestFailed:
		h.metrics.RecordError("dialogue", stringData(event, "error_kind", "unknown"))
	case observability.EventSubtaskCompleted:
		h.metrics.SubtaskCounter.WithLabelValues("done").Inc()
	case observability.EventSubtaskFailed:
		h.metrics.SubtaskCounter.WithLabelValues("failed").Inc()
	case observability.EventAgentSwitched:
		h.metrics.AgentSwitches.WithLabelValues(stringData(event, "from", "unknown"), stringData(event, "to", "unknown")).Inc()
	case observability.EventToolApprovalRequested:
		h.metrics.ApprovalsPending.WithLabelValues(stringData(event, "approval_type", "tool")).Inc()
	case observability.EventHITLDecisionMade:
		h.metrics.ApprovalsPending.WithLabelValues(stringData(event, "approval_type", "tool")).Dec()
		h.metrics.ApprovalDecisions.WithLabelValues(stringData(event, "approval_type", "tool"), stringData(event, "decision", "unknown")).Inc()
	case observability.EventPlanCreated:
		h.metrics.PlansActive.Inc()
	case observability.EventPlanCompleted, observability.EventPlanFailed:
		h.metrics.PlansActive.Dec()
	}
}

func stringData(event *observability.Event, key, fallback string) string {
	if event.Data == nil {
		return fallback
	}
	if v, ok := event.Data[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
