package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LLM_MODEL", "LLM_PROXY_URL", "INTERNAL_API_KEY",
		"MAX_SWITCHES_PER_CONVERSATION", "MAX_MESSAGES_PER_CONVERSATION",
		"CIRCUIT_BREAKER_FAILURE_THRESHOLD", "CIRCUIT_BREAKER_RECOVERY_SECONDS",
		"LLM_RETRY_MAX_ATTEMPTS", "LLM_RETRY_BASE_SECONDS", "LLM_RETRY_MAX_SECONDS",
		"HITL_GLOBAL_ENABLED", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("LLM_PROXY_URL", "https://proxy.internal")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 50, cfg.MaxSwitchesPerConversation)
	require.Equal(t, 1000, cfg.MaxMessagesPerConversation)
	require.Equal(t, 5, cfg.CircuitBreakerFailureThreshold)
	require.True(t, cfg.HITLGlobalEnabled)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("LLM_PROXY_URL", "https://proxy.internal")
	t.Setenv("MAX_SWITCHES_PER_CONVERSATION", "10")
	t.Setenv("HITL_GLOBAL_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 10, cfg.MaxSwitchesPerConversation)
	require.False(t, cfg.HITLGlobalEnabled)
}

func TestLoadRequiresLLMModel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROXY_URL", "https://proxy.internal")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadDerivesDurations(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("LLM_PROXY_URL", "https://proxy.internal")
	t.Setenv("LLM_RETRY_BASE_SECONDS", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, int64(2e9), cfg.LLMRetryBase.Nanoseconds())
}
