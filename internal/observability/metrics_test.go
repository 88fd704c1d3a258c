package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordLLMRequest(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_llm_requests_total"}, []string{"model", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_llm_duration_seconds"}, []string{"model"})
	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_llm_tokens_total"}, []string{"model", "type"})

	m := &Metrics{LLMRequestCounter: counter, LLMRequestDuration: duration, LLMTokensUsed: tokens}
	m.RecordLLMRequest("gpt-4o", "success", 1.25, 100, 40)

	require.Equal(t, 1, testutil.CollectAndCount(counter))
	require.InDelta(t, 100, testutil.ToFloat64(tokens.WithLabelValues("gpt-4o", "prompt")), 0.001)
	require.InDelta(t, 40, testutil.ToFloat64(tokens.WithLabelValues("gpt-4o", "completion")), 0.001)
}

func TestRecordCircuitState(t *testing.T) {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "test_circuit_state"}, []string{"name"})
	m := &Metrics{CircuitBreakerState: gauge}

	m.RecordCircuitState("llm", "open")
	require.InDelta(t, 1, testutil.ToFloat64(gauge.WithLabelValues("llm")), 0.001)

	m.RecordCircuitState("llm", "half-open")
	require.InDelta(t, 0.5, testutil.ToFloat64(gauge.WithLabelValues("llm")), 0.001)

	m.RecordCircuitState("llm", "closed")
	require.InDelta(t, 0, testutil.ToFloat64(gauge.WithLabelValues("llm")), 0.001)
}

func TestRecordError(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_errors_total"}, []string{"component", "error_kind"})
	m := &Metrics{ErrorCounter: counter}

	m.RecordError("dialogue", "TransientLLM")
	require.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("dialogue", "TransientLLM")), 0.001)
}
