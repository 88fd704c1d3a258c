// Package config loads the core's Config from environment variables (§6),
// with an optional YAML overlay file: YAML supplies structured defaults,
// environment variables apply the final override.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable named in §6.
type Config struct {
	LLMModel       string `yaml:"llm_model"`
	LLMProxyURL    string `yaml:"llm_proxy_url"`
	InternalAPIKey string `yaml:"internal_api_key"`

	MaxSwitchesPerConversation int `yaml:"max_switches_per_conversation"`
	MaxMessagesPerConversation int `yaml:"max_messages_per_conversation"`

	CircuitBreakerFailureThreshold int           `yaml:"circuit_breaker_failure_threshold"`
	CircuitBreakerRecoverySeconds  int           `yaml:"circuit_breaker_recovery_seconds"`
	CircuitBreakerRecovery         time.Duration `yaml:"-"`

	LLMRetryMaxAttempts int           `yaml:"llm_retry_max_attempts"`
	LLMRetryBaseSeconds int           `yaml:"llm_retry_base_seconds"`
	LLMRetryMaxSeconds  int           `yaml:"llm_retry_max_seconds"`
	LLMRetryBase        time.Duration `yaml:"-"`
	LLMRetryMax         time.Duration `yaml:"-"`

	HITLGlobalEnabled bool `yaml:"hitl_global_enabled"`

	// LogLevel and LogFormat configure internal/observability.Logger; not
	// part of the §6 tunable set, but required by the ambient logging stack.
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the spec's documented defaults (§6).
func Defaults() *Config {
	return &Config{
		LLMModel:                       "",
		LLMProxyURL:                    "",
		InternalAPIKey:                 "",
		MaxSwitchesPerConversation:     50,
		MaxMessagesPerConversation:     1000,
		CircuitBreakerFailureThreshold: 5,
		CircuitBreakerRecoverySeconds:  60,
		LLMRetryMaxAttempts:            3,
		LLMRetryBaseSeconds:            2,
		LLMRetryMaxSeconds:             10,
		HITLGlobalEnabled:              true,
		LogLevel:                       "info",
		LogFormat:                      "json",
	}
}

// Load builds a Config starting from Defaults(), applying an optional YAML
// overlay file (overlayPath, skipped if empty or missing), loading a local
// .env file into the process environment if present, then applying
// environment variable overrides (env vars always win).
func Load(overlayPath string) (*Config, error) {
	cfg := Defaults()

	if overlayPath != "" {
		if data, err := os.ReadFile(overlayPath); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config overlay %s: %w", overlayPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config overlay %s: %w", overlayPath, err)
		}
	}

	// Best-effort: a missing .env is not an error, the process may already
	// have its environment populated by the surrounding gateway deployment.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	cfg.CircuitBreakerRecovery = time.Duration(cfg.CircuitBreakerRecoverySeconds) * time.Second
	cfg.LLMRetryBase = time.Duration(cfg.LLMRetryBaseSeconds) * time.Second
	cfg.LLMRetryMax = time.Duration(cfg.LLMRetryMaxSeconds) * time.Second

	return cfg, cfg.Validate()
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMProxyURL, "LLM_PROXY_URL")
	setString(&cfg.InternalAPIKey, "INTERNAL_API_KEY")
	setInt(&cfg.MaxSwitchesPerConversation, "MAX_SWITCHES_PER_CONVERSATION")
	setInt(&cfg.MaxMessagesPerConversation, "MAX_MESSAGES_PER_CONVERSATION")
	setInt(&cfg.CircuitBreakerFailureThreshold, "CIRCUIT_BREAKER_FAILURE_THRESHOLD")
	setInt(&cfg.CircuitBreakerRecoverySeconds, "CIRCUIT_BREAKER_RECOVERY_SECONDS")
	setInt(&cfg.LLMRetryMaxAttempts, "LLM_RETRY_MAX_ATTEMPTS")
	setInt(&cfg.LLMRetryBaseSeconds, "LLM_RETRY_BASE_SECONDS")
	setInt(&cfg.LLMRetryMaxSeconds, "LLM_RETRY_MAX_SECONDS")
	setBool(&cfg.HITLGlobalEnabled, "HITL_GLOBAL_ENABLED")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
}

func setString(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate rejects configs missing a required field.
func (c *Config) Validate() error {
	if c.LLMModel == "" {
		return fmt.Errorf("config: LLM_MODEL is required")
	}
	if c.LLMProxyURL == "" {
		return fmt.Errorf("config: LLM_PROXY_URL is required")
	}
	if c.MaxSwitchesPerConversation <= 0 {
		return fmt.Errorf("config: MAX_SWITCHES_PER_CONVERSATION must be positive")
	}
	if c.MaxMessagesPerConversation <= 0 {
		return fmt.Errorf("config: MAX_MESSAGES_PER_CONVERSATION must be positive")
	}
	return nil
}
