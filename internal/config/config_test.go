package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_ASSISTANT_ID", "asst_1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "asst_1", cfg.AssistantID)
	assert.Equal(t, 200*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.PollTimeout)
	assert.Equal(t, 3, cfg.RunMaxAttempts)
	assert.Equal(t, 4, cfg.TurnMaxRoundTrips)
	assert.Equal(t, 1, cfg.TurnMaxErrorBatches)
	assert.False(t, cfg.ParallelToolCalls)
	assert.Equal(t, ".agent/session.json", cfg.SessionPath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv_AssistantPreference(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_ASSISTANT_ID", "")
	t.Setenv("OPENAI_ASSISTANT_PREFERENCE", "OPENAI_GPT_4_ASSISTANT_ID")
	t.Setenv("OPENAI_GPT_4_ASSISTANT_ID", "asst_gpt4")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "asst_gpt4", cfg.AssistantID)
}

func TestLoadFromEnv_DefaultPreference(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_ASSISTANT_ID", "")
	t.Setenv("OPENAI_ASSISTANT_PREFERENCE", "")
	t.Setenv(DefaultAssistantPreference, "asst_35")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "asst_35", cfg.AssistantID)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			APIKey:              "sk",
			AssistantID:         "asst",
			AssistantPreference: DefaultAssistantPreference,
			PollInterval:        time.Millisecond,
			PollTimeout:         time.Second,
			RunMaxAttempts:      1,
		}
	}
	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.APIKey = "" }, "OPENAI_API_KEY"},
		{"missing assistant", func(c *Config) { c.AssistantID = "" }, "assistant id"},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }, "POLL_INTERVAL"},
		{"zero timeout", func(c *Config) { c.PollTimeout = 0 }, "POLL_TIMEOUT"},
		{"zero attempts", func(c *Config) { c.RunMaxAttempts = 0 }, "RUN_MAX_ATTEMPTS"},
		{"negative round trips", func(c *Config) { c.TurnMaxRoundTrips = -1 }, "TURN_MAX_ROUND_TRIPS"},
		{"negative error batches", func(c *Config) { c.TurnMaxErrorBatches = -1 }, "TURN_MAX_ERROR_BATCHES"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
