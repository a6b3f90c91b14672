// Package config loads assistant settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultAssistantPreference names the env var read when OPENAI_ASSISTANT_ID is unset.
const DefaultAssistantPreference = "OPENAI_GPT_3_5_ASSISTANT_ID"

// Config holds all configuration for the assistant CLI.
type Config struct {
	// OpenAI
	APIKey              string `envconfig:"OPENAI_API_KEY"`
	BaseURL             string `envconfig:"OPENAI_BASE_URL" default:""`
	AssistantID         string `envconfig:"OPENAI_ASSISTANT_ID" default:""`
	AssistantPreference string `envconfig:"OPENAI_ASSISTANT_PREFERENCE" default:"OPENAI_GPT_3_5_ASSISTANT_ID"`

	// Run protocol
	PollInterval        time.Duration `envconfig:"POLL_INTERVAL" default:"200ms"`
	PollTimeout         time.Duration `envconfig:"POLL_TIMEOUT" default:"2m"`
	RunMaxAttempts      int           `envconfig:"RUN_MAX_ATTEMPTS" default:"3"`
	TurnMaxRoundTrips   int           `envconfig:"TURN_MAX_ROUND_TRIPS" default:"4"`
	TurnMaxErrorBatches int           `envconfig:"TURN_MAX_ERROR_BATCHES" default:"1"`
	ParallelToolCalls   bool          `envconfig:"PARALLEL_TOOL_CALLS" default:"false"`

	// Presentation
	SessionPath        string `envconfig:"SESSION_PATH" default:".agent/session.json"`
	WelcomeMessagePath string `envconfig:"WELCOME_MESSAGE_PATH" default:""`
	PageTitle          string `envconfig:"PAGE_TITLE" default:"Marco's"`

	// Observability
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricsAddr    string `envconfig:"METRICS_ADDR" default:":9464"`
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv skips the .env file.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.resolveAssistant(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveAssistant fills AssistantID from the variable named by AssistantPreference.
func (c *Config) resolveAssistant(getenv func(string) string) {
	if c.AssistantID != "" {
		return
	}
	pref := c.AssistantPreference
	if pref == "" {
		pref = DefaultAssistantPreference
	}
	c.AssistantID = getenv(pref)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.AssistantID == "" {
		return fmt.Errorf("assistant id is required: set OPENAI_ASSISTANT_ID or %s", c.AssistantPreference)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("POLL_TIMEOUT must be positive, got %s", c.PollTimeout)
	}
	if c.RunMaxAttempts <= 0 {
		return fmt.Errorf("RUN_MAX_ATTEMPTS must be positive, got %d", c.RunMaxAttempts)
	}
	if c.TurnMaxRoundTrips < 0 {
		return fmt.Errorf("TURN_MAX_ROUND_TRIPS must not be negative, got %d", c.TurnMaxRoundTrips)
	}
	if c.TurnMaxErrorBatches < 0 {
		return fmt.Errorf("TURN_MAX_ERROR_BATCHES must not be negative, got %d", c.TurnMaxErrorBatches)
	}
	return nil
}
