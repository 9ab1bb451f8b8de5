// Package clipbrain is a multi-backend consensus engine: it fans one prompt
// out to several LLM backends, measures how much their answers agree, and
// synthesizes a single answer with a confidence score, optionally via a
// structured four-round debate.
package clipbrain

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jervinho777/clipbrain/config"
	"github.com/jervinho777/clipbrain/ensemble"
	"github.com/jervinho777/clipbrain/llm"
	"github.com/jervinho777/clipbrain/llm/tokenizer"
	"github.com/jervinho777/clipbrain/providers"
	"github.com/jervinho777/clipbrain/providers/anthropic"
	"github.com/jervinho777/clipbrain/providers/gemini"
	"github.com/jervinho777/clipbrain/providers/openaicompat"
)

// Engine is the top-level facade. Construct once per process; the usage
// accumulator lives for the engine's lifetime and never resets.
type Engine struct {
	registry *ensemble.Registry
	tracker  *ensemble.UsageTracker
	invoker  *ensemble.Invoker
	builder  *ensemble.Builder
	logger   *zap.Logger
}

// Option customizes engine construction.
type Option func(*engineOptions)

type engineOptions struct {
	registerer prometheus.Registerer
}

// WithRegisterer overrides the Prometheus registerer the engine registers
// its collectors on. The default is prometheus.DefaultRegisterer; pass a
// dedicated registry when running several engines in one process.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *engineOptions) { o.registerer = reg }
}

// New builds an engine from configuration. Backends with missing
// credentials register as unavailable rather than failing construction; an
// engine with zero live backends is still valid, it just answers with
// confidence 0.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	eo := engineOptions{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&eo)
	}

	registry := ensemble.NewRegistry(logger)
	for _, bc := range cfg.Backends {
		spec := ensemble.BackendSpec{
			ID:            bc.ID,
			Model:         bc.Model,
			FallbackModel: bc.FallbackModel,
			Pricing:       bc.Pricing(),
		}
		apiKey := bc.ResolveAPIKey()
		if apiKey == "" {
			spec.Status = ensemble.StatusUnavailable
			spec.StatusReason = "credential missing: " + bc.APIKeyEnv + " unset"
		} else {
			provider, err := buildProvider(bc, apiKey, logger)
			if err != nil {
				spec.Status = ensemble.StatusUnavailable
				spec.StatusReason = err.Error()
			} else {
				spec.Provider = provider
			}
		}
		registry.Register(spec)
	}

	metrics := ensemble.NewMetrics(eo.registerer)
	tracker := ensemble.NewUsageTracker(metrics, logger)

	var counter tokenizer.Counter
	if tk, err := tokenizer.NewTiktokenCounter(""); err != nil {
		// Estimation still works word-based; log and continue.
		logger.Warn("tiktoken unavailable, falling back to word estimate", zap.Error(err))
		counter = tokenizer.WordEstimateCounter{}
	} else {
		counter = tk
	}

	invokerCfg := ensemble.DefaultInvokerConfig()
	if cfg.Engine.DefaultMaxTokens > 0 {
		invokerCfg.DefaultMaxTokens = cfg.Engine.DefaultMaxTokens
	}
	if cfg.Engine.DefaultTemperature > 0 {
		invokerCfg.DefaultTemperature = cfg.Engine.DefaultTemperature
	}
	invokerCfg.RateLimit = rate.Limit(cfg.Engine.RateLimit)
	invokerCfg.RateBurst = cfg.Engine.RateBurst

	invoker := ensemble.NewInvoker(registry, tracker, counter, invokerCfg, logger)
	orchestrator := ensemble.NewOrchestrator(invoker, registry, cfg.Engine.MaxConcurrent, logger)
	scorer := ensemble.NewScorer(cfg.Engine.Scorer, nil)
	debate := ensemble.NewDebateCoordinator(registry, orchestrator, cfg.Engine.Rubric, logger)

	builderCfg := ensemble.BuilderConfig{
		Strategy:            ensemble.Strategy(cfg.Engine.Strategy),
		EscalationThreshold: cfg.Engine.EscalationThreshold,
	}
	builder := ensemble.NewBuilder(builderCfg, registry, orchestrator, scorer, debate, logger)

	logger.Info("engine ready",
		zap.Int("backends", registry.Len()),
		zap.Strings("available", registry.AvailableBackends()))

	return &Engine{
		registry: registry,
		tracker:  tracker,
		invoker:  invoker,
		builder:  builder,
		logger:   logger,
	}, nil
}

func buildProvider(bc config.BackendConfig, apiKey string, logger *zap.Logger) (llm.Provider, error) {
	pc := providers.Config{
		APIKey:  apiKey,
		BaseURL: bc.BaseURL,
		Model:   bc.Model,
		Timeout: bc.Timeout,
	}
	switch bc.Family {
	case "openai", "deepseek", "xai":
		return openaicompat.New(bc.Family, pc, logger), nil
	case "anthropic":
		return anthropic.New(pc, logger), nil
	case "gemini":
		return gemini.New(pc, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend family %q", bc.Family)
	}
}

// BuildConsensus runs one consensus query. An empty strategy uses the
// configured default.
func (e *Engine) BuildConsensus(ctx context.Context, prompt, system string, strategy ensemble.Strategy) (*ensemble.ConsensusResult, error) {
	req := ensemble.InvocationRequest{Prompt: prompt, System: system}
	return e.builder.BuildConsensus(ctx, req, strategy)
}

// Call invokes one named backend directly, bypassing consensus. Failures
// come back as an unsuccessful result, never as a Go error.
func (e *Engine) Call(ctx context.Context, backend, prompt, system string) ensemble.InvocationResult {
	return e.invoker.Invoke(ctx, backend, ensemble.InvocationRequest{Prompt: prompt, System: system})
}

// QuickScores asks up to maxBackends backends for a 0-100 score.
func (e *Engine) QuickScores(ctx context.Context, prompt string, maxBackends int) []int {
	return e.builder.QuickScores(ctx, prompt, maxBackends)
}

// Vote has every available backend pick one of the options.
func (e *Engine) Vote(ctx context.Context, question string, options []string) (string, map[string]int) {
	return e.builder.Vote(ctx, question, options)
}

// UsageStats returns a point-in-time copy of the cost accumulator.
func (e *Engine) UsageStats() ensemble.UsageStats {
	return e.tracker.Stats()
}

// AvailableBackends returns the live backend IDs in priority order.
func (e *Engine) AvailableBackends() []string {
	return e.registry.AvailableBackends()
}

// Health probes every registered backend. Diagnostic only: results never
// change registry status.
func (e *Engine) Health(ctx context.Context) map[string]*llm.HealthStatus {
	return e.registry.Health(ctx)
}
