package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/haasonsaas/agentcore/internal/errs"
)

// FailoverReason categorizes why a chat-completion call failed. Only a
// fixed subset maps to the core's retryable ErrTransientLLM kind (§4.C5):
// request timeout, connection error, read timeout, 429, 503, 504.
// Everything else is ErrPermanentLLM.
type FailoverReason string

const (
	FailoverTimeout        FailoverReason = "timeout"
	FailoverRateLimit      FailoverReason = "rate_limit"
	FailoverServerError    FailoverReason = "server_error"
	FailoverConnection     FailoverReason = "connection"
	FailoverAuth           FailoverReason = "auth"
	FailoverInvalidRequest FailoverReason = "invalid_request"
	FailoverNotFound       FailoverReason = "not_found"
	FailoverUnknown        FailoverReason = "unknown"
)

// retryableReasons is the fixed set of classified-transient conditions the
// retry policy applies to (§4.C5).
var retryableReasons = map[FailoverReason]bool{
	FailoverTimeout:     true,
	FailoverConnection:  true,
	FailoverRateLimit:   true,
	FailoverServerError: true,
}

// ProviderError is a structured error from the LLM proxy.
type ProviderError struct {
	Reason  FailoverReason
	Status  int
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm proxy error [%s] status=%d: %s", e.Reason, e.Status, e.Message)
	}
	return fmt.Sprintf("llm proxy error [%s]: %s", e.Reason, e.Message)
}

func (e *ProviderError) Unwrap() error {
	if retryableReasons[e.Reason] {
		return fmt.Errorf("%w: %s", errs.ErrTransientLLM, e.Message)
	}
	return fmt.Errorf("%w: %s", errs.ErrPermanentLLM, e.Message)
}

// ClassifyStatus maps an HTTP status code to a FailoverReason per §4.C5:
// 429/503/504 are transient; 400/401/403/404/500 are permanent.
func ClassifyStatus(status int) FailoverReason {
	switch status {
	case http.StatusTooManyRequests:
		return FailoverRateLimit
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return FailoverServerError
	case http.StatusUnauthorized, http.StatusForbidden:
		return FailoverAuth
	case http.StatusBadRequest:
		return FailoverInvalidRequest
	case http.StatusNotFound:
		return FailoverNotFound
	case http.StatusInternalServerError:
		return FailoverUnknown // permanent per spec, not in the retryable set
	default:
		if status >= 500 {
			return FailoverUnknown
		}
		return FailoverUnknown
	}
}

// ClassifyTransportError inspects a network-level error (no HTTP status, e.g.
// a dial failure or a context deadline) and returns its FailoverReason.
func ClassifyTransportError(err error) FailoverReason {
	if err == nil {
		return FailoverUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return FailoverTimeout
	}
	return FailoverConnection
}

// NewProviderError builds a ProviderError from an HTTP status code.
func NewProviderError(status int, message string, cause error) *ProviderError {
	return &ProviderError{Reason: ClassifyStatus(status), Status: status, Message: message, Cause: cause}
}

// NewTransportError builds a ProviderError from a transport-level failure.
func NewTransportError(cause error) *ProviderError {
	return &ProviderError{Reason: ClassifyTransportError(cause), Message: cause.Error(), Cause: cause}
}
