package llm

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/agentcore/internal/errs"
)

func TestClassifyStatusTransientVsPermanent(t *testing.T) {
	transient := []int{http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout}
	for _, status := range transient {
		err := NewProviderError(status, "boom", nil)
		require.ErrorIs(t, err, errs.ErrTransientLLM, status)
	}

	permanent := []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusInternalServerError}
	for _, status := range permanent {
		err := NewProviderError(status, "boom", nil)
		require.ErrorIs(t, err, errs.ErrPermanentLLM, status)
	}
}

func TestNewTransportErrorClassifiesTimeoutVsConnection(t *testing.T) {
	timeoutErr := NewTransportError(errors.New("read timeout exceeded"))
	require.Equal(t, FailoverTimeout, timeoutErr.Reason)
	require.ErrorIs(t, timeoutErr, errs.ErrTransientLLM)

	connErr := NewTransportError(errors.New("dial tcp: connection refused"))
	require.Equal(t, FailoverConnection, connErr.Reason)
	require.ErrorIs(t, connErr, errs.ErrTransientLLM)
}

func TestProviderErrorMessageIncludesStatus(t *testing.T) {
	err := NewProviderError(503, "upstream down", nil)
	require.Contains(t, err.Error(), "503")
	require.Contains(t, err.Error(), "upstream down")
}
