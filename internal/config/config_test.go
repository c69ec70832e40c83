package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "SYSTEM_PROMPT", "DB_PATH", "REDIS_ADDR", "MAX_ITERATIONS",
		"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "LLM_API_KEY",
		"LLM_FALLBACK_PROVIDER", "LLM_FALLBACK_MODEL", "LLM_FALLBACK_BASE_URL", "LLM_FALLBACK_API_KEY",
		"GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"COINGECKO_URL", "COINGECKO_API_KEY", "MARKET_RETRIES",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "80", cfg.Port)
	assert.Equal(t, 7, cfg.MaxIterations)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Nil(t, cfg.FallbackLLM)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.Market.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Market.Timeout)
	assert.Zero(t, cfg.Market.Retries)
	assert.Empty(t, cfg.DBPath)
	assert.Empty(t, cfg.RedisAddr)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_ITERATIONS", "11")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_FALLBACK_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "ant-test")
	t.Setenv("DB_PATH", "/tmp/asks.db")
	t.Setenv("MARKET_RETRIES", "2")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 11, cfg.MaxIterations)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	require.NotNil(t, cfg.FallbackLLM)
	assert.Equal(t, "anthropic", cfg.FallbackLLM.Provider)
	assert.Equal(t, "ant-test", cfg.FallbackLLM.APIKey)
	assert.Equal(t, "/tmp/asks.db", cfg.DBPath)
	assert.Equal(t, 2, cfg.Market.Retries)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvBadInteger(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_ITERATIONS", "seven")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "MAX_ITERATIONS")
}

func TestGenericKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "specific")
	t.Setenv("LLM_API_KEY", "generic")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "generic", cfg.LLM.APIKey)
}

func TestUseProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "ant")

	cfg := Defaults()
	cfg.UseProvider("Anthropic")

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.Model)
	assert.Equal(t, "ant", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }, "max iterations"},
		{"negative retries", func(c *Config) { c.Market.Retries = -1 }, "retries"},
		{"missing key", func(c *Config) { c.LLM.APIKey = "" }, "requires an API key"},
		{"local without url", func(c *Config) { c.LLM = LLMConfig{Provider: "local"} }, "base URL"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "cohere" }, "unknown LLM provider"},
		{"bad fallback", func(c *Config) { c.FallbackLLM = &LLMConfig{Provider: "openai"} }, "fallback"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.LLM.APIKey = "key"
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}
