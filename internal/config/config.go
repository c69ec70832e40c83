package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSystemPrompt steers the model towards the market data tools.
const DefaultSystemPrompt = "You are a helpful crypto assistant that provides real-time cryptocurrency market data. " +
	"Use the available tools to fetch accurate price information. " +
	"When users ask about a coin, use get_crypto_price with the coin ID (e.g., 'bitcoin', 'ethereum'). " +
	"If unsure about the ID, use search_crypto first."

// Config is the process configuration, resolved once at startup.
type Config struct {
	Port          string
	SystemPrompt  string
	MaxIterations int

	LLM         LLMConfig
	FallbackLLM *LLMConfig

	Market MarketConfig

	// Optional side stores; empty disables them.
	DBPath    string
	RedisAddr string
}

type LLMConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

type MarketConfig struct {
	BaseURL string
	APIKey  string
	Retries int
	Timeout time.Duration
}

// Defaults returns a Config with the built-in defaults.
func Defaults() *Config {
	return &Config{
		Port:          "80",
		SystemPrompt:  DefaultSystemPrompt,
		MaxIterations: 7,
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Market: MarketConfig{
			BaseURL: "https://api.coingecko.com/api/v3",
			Timeout: 10 * time.Second,
		},
	}
}

// FromEnv builds a Config from environment variables on top of Defaults.
func FromEnv() (*Config, error) {
	cfg := Defaults()

	cfg.Port = getenv("PORT", cfg.Port)
	cfg.SystemPrompt = getenv("SYSTEM_PROMPT", cfg.SystemPrompt)
	cfg.DBPath = os.Getenv("DB_PATH")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")

	var err error
	if cfg.MaxIterations, err = getenvInt("MAX_ITERATIONS", cfg.MaxIterations); err != nil {
		return nil, err
	}

	cfg.LLM.Provider = strings.ToLower(getenv("LLM_PROVIDER", cfg.LLM.Provider))
	if cfg.LLM.Provider != "gemini" {
		cfg.LLM.Model = ""
	}
	cfg.LLM.Model = getenv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = os.Getenv("LLM_BASE_URL")
	cfg.LLM.APIKey = apiKeyFor(cfg.LLM.Provider, "LLM_API_KEY")

	if p := strings.ToLower(os.Getenv("LLM_FALLBACK_PROVIDER")); p != "" {
		cfg.FallbackLLM = &LLMConfig{
			Provider: p,
			Model:    os.Getenv("LLM_FALLBACK_MODEL"),
			BaseURL:  os.Getenv("LLM_FALLBACK_BASE_URL"),
			APIKey:   apiKeyFor(p, "LLM_FALLBACK_API_KEY"),
		}
	}

	cfg.Market.BaseURL = getenv("COINGECKO_URL", cfg.Market.BaseURL)
	cfg.Market.APIKey = os.Getenv("COINGECKO_API_KEY")
	if cfg.Market.Retries, err = getenvInt("MARKET_RETRIES", cfg.Market.Retries); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UseProvider switches the primary provider. The model falls back to the
// provider default and the key is resolved again.
func (c *Config) UseProvider(provider string) {
	provider = strings.ToLower(provider)
	if provider == c.LLM.Provider {
		return
	}
	c.LLM.Provider = provider
	c.LLM.Model = ""
	c.LLM.APIKey = apiKeyFor(provider, "LLM_API_KEY")
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.Market.Retries < 0 {
		return fmt.Errorf("market retries must not be negative, got %d", c.Market.Retries)
	}
	if err := c.LLM.validate(); err != nil {
		return err
	}
	if c.FallbackLLM != nil {
		if err := c.FallbackLLM.validate(); err != nil {
			return fmt.Errorf("fallback: %w", err)
		}
	}
	return nil
}

func (l LLMConfig) validate() error {
	switch l.Provider {
	case "gemini", "openai", "anthropic":
		if l.APIKey == "" {
			return fmt.Errorf("%s provider requires an API key", l.Provider)
		}
	case "openrouter", "local":
		if l.BaseURL == "" {
			return fmt.Errorf("%s provider requires a base URL", l.Provider)
		}
	default:
		return fmt.Errorf("unknown LLM provider: %q", l.Provider)
	}
	return nil
}

// apiKeyFor resolves the credential for a provider: the generic variable wins,
// then the provider's conventional one.
func apiKeyFor(provider, generic string) string {
	if v := os.Getenv(generic); v != "" {
		return v
	}
	switch provider {
	case "gemini":
		if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
			return v
		}
		return os.Getenv("GEMINI_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	}
	return ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
