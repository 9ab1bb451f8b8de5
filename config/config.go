package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jervinho777/clipbrain/ensemble"
)

// Config is the full engine configuration.
type Config struct {
	Backends []BackendConfig `yaml:"backends" json:"backends"`
	Engine   EngineConfig    `yaml:"engine" json:"engine"`
	Log      LogConfig       `yaml:"log" json:"log"`
}

// BackendConfig declares one backend: which adapter family serves it, how
// to authenticate, and which models to run.
type BackendConfig struct {
	// ID is the backend's registry key, e.g. "opus" or "grok".
	ID string `yaml:"id" json:"id"`
	// Family selects the adapter: openai, deepseek, xai, anthropic, gemini.
	Family string `yaml:"family" json:"family"`
	// APIKeyEnv names the environment variable holding the credential.
	// An unset or empty variable leaves the backend unavailable.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`
	// APIKey takes precedence over APIKeyEnv when set directly.
	APIKey  string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	Model         string        `yaml:"model" json:"model"`
	FallbackModel string        `yaml:"fallback_model,omitempty" json:"fallback_model,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Rate overrides; zero means look the model up in the pricing table.
	InputPer1M  float64 `yaml:"input_per_1m,omitempty" json:"input_per_1m,omitempty"`
	OutputPer1M float64 `yaml:"output_per_1m,omitempty" json:"output_per_1m,omitempty"`
}

// ResolveAPIKey returns the literal key if set, else the env lookup.
func (b BackendConfig) ResolveAPIKey() string {
	if b.APIKey != "" {
		return b.APIKey
	}
	if b.APIKeyEnv != "" {
		return os.Getenv(b.APIKeyEnv)
	}
	return ""
}

// Pricing returns the effective rates: explicit overrides when present,
// otherwise the model pricing table.
func (b BackendConfig) Pricing() ensemble.Pricing {
	if b.InputPer1M > 0 || b.OutputPer1M > 0 {
		return ensemble.Pricing{InputPer1M: b.InputPer1M, OutputPer1M: b.OutputPer1M}
	}
	return ensemble.PricingFor(b.Model)
}

// EngineConfig tunes invocation and consensus behavior.
type EngineConfig struct {
	Strategy            string                 `yaml:"strategy" json:"strategy"`
	EscalationThreshold float64                `yaml:"escalation_threshold" json:"escalation_threshold"`
	MaxConcurrent       int                    `yaml:"max_concurrent" json:"max_concurrent"`
	DefaultMaxTokens    int                    `yaml:"default_max_tokens" json:"default_max_tokens"`
	DefaultTemperature  float32                `yaml:"default_temperature" json:"default_temperature"`
	RateLimit           float64                `yaml:"rate_limit" json:"rate_limit"`
	RateBurst           int                    `yaml:"rate_burst" json:"rate_burst"`
	Rubric              ensemble.RubricWeights `yaml:"rubric" json:"rubric"`
	Scorer              ensemble.ScorerConfig  `yaml:"scorer" json:"scorer"`
}

// LogConfig controls the zap logger construction.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json or console
}

// Loader loads configuration with the priority defaults -> YAML -> env.
type Loader struct {
	configPath string
	validators []func(*Config) error
}

// NewLoader creates a config loader.
func NewLoader() *Loader {
	return &Loader{validators: make([]func(*Config) error, 0)}
}

// WithConfigPath sets the YAML file to load. A missing file is not an
// error; defaults apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithValidator appends a validation step run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load assembles the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Validate checks structural invariants: unique backend IDs, known
// families, a model per backend.
func Validate(cfg *Config) error {
	seen := make(map[string]struct{}, len(cfg.Backends))
	for _, b := range cfg.Backends {
		if b.ID == "" {
			return fmt.Errorf("backend with empty id")
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("duplicate backend id %q", b.ID)
		}
		seen[b.ID] = struct{}{}

		switch b.Family {
		case "openai", "deepseek", "xai", "anthropic", "gemini":
		default:
			return fmt.Errorf("backend %q: unknown family %q", b.ID, b.Family)
		}
		if b.Model == "" {
			return fmt.Errorf("backend %q: model is required", b.ID)
		}
	}

	if t := cfg.Engine.EscalationThreshold; t < 0 || t > 1 {
		return fmt.Errorf("escalation_threshold %v outside [0,1]", t)
	}
	return nil
}
