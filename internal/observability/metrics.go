package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting core metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - Dialogue turn throughput and latency (C7)
//   - LLM request performance, retries, and circuit-breaker state (C5, C14)
//   - Plan and subtask progress (C9, C11)
//   - HITL approval queue depth (C4)
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	metrics.TurnStarted("coder")
//	defer metrics.LLMRequestDuration.WithLabelValues("default").Observe(time.Since(start).Seconds())
type Metrics struct {
	// TurnCounter counts dialogue engine turns by agent type and outcome.
	// Labels: agent_type, outcome (message|tool_call|agent_switch|error)
	TurnCounter *prometheus.CounterVec

	// LLMRequestDuration measures chat-completion call latency in seconds.
	// Labels: model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts chat-completion calls by model and status.
	// Labels: model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMTokensUsed tracks token consumption.
	// Labels: model, type (prompt|completion)
	LLMTokensUsed *prometheus.CounterVec

	// RetryAttempts counts retry attempts by component and outcome.
	// Labels: component, outcome (retried|exhausted|succeeded)
	RetryAttempts *prometheus.CounterVec

	// CircuitBreakerState is a gauge of the current circuit state (0=closed,
	// 0.5=half-open, 1=open).
	// Labels: name
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerTransitions counts state transitions.
	// Labels: name, from, to
	CircuitBreakerTransitions *prometheus.CounterVec

	// ApprovalsPending is a gauge of currently pending HITL approvals.
	// Labels: type (tool|plan)
	ApprovalsPending *prometheus.GaugeVec

	// ApprovalDecisions counts decided approvals.
	// Labels: type, decision (approve|reject|edit)
	ApprovalDecisions *prometheus.CounterVec

	// PlansActive is a gauge of plans currently in_progress or waiting_approval.
	PlansActive prometheus.Gauge

	// SubtaskCounter counts subtask completions by status.
	// Labels: status (done|failed)
	SubtaskCounter *prometheus.CounterVec

	// AgentSwitches counts agent switches by from/to type.
	// Labels: from, to
	AgentSwitches *prometheus.CounterVec

	// ErrorCounter tracks errors by component and error kind (§7).
	// Labels: component, error_kind
	ErrorCounter *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics. This should be
// called once at application startup.
func NewMetrics() *Metrics {
	return &Metrics{
		TurnCounter: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_turns_total",
			Help: "Total dialogue engine turns by agent type and outcome.",
		}, []string{"agent_type", "outcome"}),

		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcore_llm_request_duration_seconds",
			Help:    "Chat-completion call latency in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 360},
		}, []string{"model"}),

		LLMRequestCounter: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_llm_requests_total",
			Help: "Chat-completion calls by model and status.",
		}, []string{"model", "status"}),

		LLMTokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_llm_tokens_total",
			Help: "Token consumption by model and type.",
		}, []string{"model", "type"}),

		RetryAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_retry_attempts_total",
			Help: "Retry attempts by component and outcome.",
		}, []string{"component", "outcome"}),

		CircuitBreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agentcore_circuit_breaker_state",
			Help: "Circuit breaker state: 0=closed, 0.5=half-open, 1=open.",
		}, []string{"name"}),

		CircuitBreakerTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions.",
		}, []string{"name", "from", "to"}),

		ApprovalsPending: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agentcore_approvals_pending",
			Help: "Currently pending HITL approvals by type.",
		}, []string{"type"}),

		ApprovalDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_approval_decisions_total",
			Help: "Decided approvals by type and decision.",
		}, []string{"type", "decision"}),

		PlansActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "agentcore_plans_active",
			Help: "Plans currently in_progress or waiting_approval.",
		}),

		SubtaskCounter: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_subtasks_total",
			Help: "Subtask completions by status.",
		}, []string{"status"}),

		AgentSwitches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_agent_switches_total",
			Help: "Agent switches by from/to type.",
		}, []string{"from", "to"}),

		ErrorCounter: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_errors_total",
			Help: "Errors by component and error kind.",
		}, []string{"component", "error_kind"}),
	}
}

// RecordLLMRequest records one chat-completion call's outcome and latency.
func (m *Metrics) RecordLLMRequest(model, status string, durationSeconds float64, promptTokens, completionTokens int) {
	m.LLMRequestCounter.WithLabelValues(model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(model).Observe(durationSeconds)
	if promptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
}

// RecordCircuitState sets the gauge for a named circuit breaker's state.
func (m *Metrics) RecordCircuitState(name, state string) {
	var v float64
	switch state {
	case "open":
		v = 1
	case "half-open":
		v = 0.5
	default:
		v = 0
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(v)
}

// RecordError increments the error counter for a component/kind pair.
func (m *Metrics) RecordError(component, errorKind string) {
	m.ErrorCounter.WithLabelValues(component, errorKind).Inc()
}
