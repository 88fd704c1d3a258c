package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRetryableOnlyTransient(t *testing.T) {
	require.True(t, IsRetryable(ErrTransientLLM))
	require.True(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrTransientLLM)))
	require.False(t, IsRetryable(ErrPermanentLLM))
	require.False(t, IsRetryable(ErrCircuitOpen))
	require.False(t, IsRetryable(errors.New("some other error")))
}
