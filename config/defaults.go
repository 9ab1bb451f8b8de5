package config

import (
	"time"

	"github.com/jervinho777/clipbrain/ensemble"
)

// DefaultConfig returns the stock six-backend ensemble. Backends whose key
// env var is unset simply come up unavailable; nothing here fails.
func DefaultConfig() *Config {
	return &Config{
		Backends: []BackendConfig{
			{
				ID:            "gpt5",
				Family:        "openai",
				APIKeyEnv:     "OPENAI_API_KEY",
				Model:         "gpt-5.2",
				FallbackModel: "gpt-4o",
				Timeout:       120 * time.Second,
			},
			{
				ID:            "opus",
				Family:        "anthropic",
				APIKeyEnv:     "ANTHROPIC_API_KEY",
				Model:         "claude-opus-4-20250514",
				FallbackModel: "claude-sonnet-4-5-20250929",
				Timeout:       120 * time.Second,
			},
			{
				ID:        "sonnet",
				Family:    "anthropic",
				APIKeyEnv: "ANTHROPIC_API_KEY",
				Model:     "claude-sonnet-4-5-20250929",
				Timeout:   120 * time.Second,
			},
			{
				ID:            "gemini",
				Family:        "gemini",
				APIKeyEnv:     "GEMINI_API_KEY",
				Model:         "gemini-2.5-pro",
				FallbackModel: "gemini-2.0-flash-exp",
				Timeout:       120 * time.Second,
			},
			{
				ID:        "deepseek",
				Family:    "deepseek",
				APIKeyEnv: "DEEPSEEK_API_KEY",
				BaseURL:   "https://api.deepseek.com",
				Model:     "deepseek-chat",
				Timeout:   120 * time.Second,
			},
			{
				ID:            "grok",
				Family:        "xai",
				APIKeyEnv:     "XAI_API_KEY",
				BaseURL:       "https://api.x.ai/v1",
				Model:         "grok-4-1-fast-reasoning",
				FallbackModel: "grok-4-fast-reasoning",
				Timeout:       120 * time.Second,
			},
		},
		Engine: EngineConfig{
			Strategy:            string(ensemble.StrategyHybrid),
			EscalationThreshold: ensemble.HybridEscalationThreshold,
			MaxConcurrent:       0, // unbounded, one goroutine per backend
			DefaultMaxTokens:    8000,
			DefaultTemperature:  0.7,
			Rubric:              ensemble.DefaultRubricWeights(),
			Scorer:              ensemble.DefaultScorerConfig(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
