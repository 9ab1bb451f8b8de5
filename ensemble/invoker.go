package ensemble

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jervinho777/clipbrain/llm"
	"github.com/jervinho777/clipbrain/llm/tokenizer"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// InvokerConfig tunes the uniform call path.
type InvokerConfig struct {
	// DefaultMaxTokens applies when a request leaves MaxTokens zero.
	DefaultMaxTokens int `json:"default_max_tokens" yaml:"default_max_tokens"`
	// DefaultTemperature applies when a request leaves Temperature zero.
	DefaultTemperature float32 `json:"default_temperature" yaml:"default_temperature"`
	// RateLimit caps calls per second per backend. Zero disables limiting.
	RateLimit rate.Limit `json:"rate_limit" yaml:"rate_limit"`
	// RateBurst is the limiter burst size when RateLimit is set.
	RateBurst int `json:"rate_burst" yaml:"rate_burst"`
}

// DefaultInvokerConfig returns the standard call defaults.
func DefaultInvokerConfig() InvokerConfig {
	return InvokerConfig{
		DefaultMaxTokens:   8000,
		DefaultTemperature: 0.7,
	}
}

// Invoker is the uniform call contract over heterogeneous backend adapters.
// Invoke never returns a Go error: every failure mode is captured in the
// InvocationResult so a fan-in can aggregate partial outcomes without
// special cases.
type Invoker struct {
	registry *Registry
	tracker  *UsageTracker
	counter  tokenizer.Counter
	cfg      InvokerConfig
	logger   *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewInvoker wires the invoker. counter may be nil, in which case the
// word-count estimator is used for responses without usage metadata.
func NewInvoker(registry *Registry, tracker *UsageTracker, counter tokenizer.Counter, cfg InvokerConfig, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if counter == nil {
		counter = tokenizer.WordEstimateCounter{}
	}
	return &Invoker{
		registry: registry,
		tracker:  tracker,
		counter:  counter,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "backend_invoker")),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Invoke calls one backend's primary model. On a fallback-class failure
// (model unavailable, overloaded, not found or out of quota) it retries once
// against the backend's configured fallback model, for this call only; the
// registry keeps pointing at the primary. Token usage is normalized, cost is
// computed from the backend's declared rates and the attempt is recorded in
// the usage tracker before returning.
func (iv *Invoker) Invoke(ctx context.Context, backendID string, req InvocationRequest) InvocationResult {
	spec, ok := iv.registry.Get(backendID)
	if !ok {
		return iv.fail(backendID, "", "unknown backend")
	}
	if spec.Status != StatusAvailable {
		return iv.fail(backendID, spec.Model, "backend unavailable: "+spec.StatusReason)
	}

	if lim := iv.limiter(backendID); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return iv.fail(backendID, spec.Model, err.Error())
		}
	}

	chatReq := iv.buildRequest(spec.Model, req)

	resp, err := spec.Provider.Completion(ctx, chatReq)
	if err != nil && spec.FallbackModel != "" && llm.WantsFallback(err) {
		iv.logger.Warn("primary model unavailable, retrying on fallback",
			zap.String("backend", backendID),
			zap.String("model", spec.Model),
			zap.String("fallback_model", spec.FallbackModel),
			zap.Error(err),
		)
		chatReq.Model = spec.FallbackModel
		resp, err = spec.Provider.Completion(ctx, chatReq)
	}
	if err != nil {
		return iv.fail(backendID, chatReq.Model, err.Error())
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	if content == "" {
		return iv.fail(backendID, chatReq.Model, "empty response content")
	}

	usage := iv.normalizeUsage(resp.Usage, req, content)
	res := InvocationResult{
		Backend: backendID,
		Model:   chatReq.Model,
		Content: content,
		Usage:   usage,
		Cost:    spec.Pricing.Cost(usage),
		Success: true,
	}
	iv.tracker.Record(res)
	return res
}

func (iv *Invoker) buildRequest(model string, req InvocationRequest) *llm.ChatRequest {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = iv.cfg.DefaultMaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = iv.cfg.DefaultTemperature
	}

	var messages []llm.Message
	if req.System != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: req.System})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Prompt})

	return &llm.ChatRequest{
		TraceID:     uuid.NewString(),
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// normalizeUsage trusts reported token counts when present; when a backend
// omits usage metadata, both sides are estimated from word counts. A missing
// usage block never fails the call.
func (iv *Invoker) normalizeUsage(u llm.ChatUsage, req InvocationRequest, content string) TokenUsage {
	if u.PromptTokens > 0 || u.CompletionTokens > 0 {
		return TokenUsage{InputTokens: u.PromptTokens, OutputTokens: u.CompletionTokens}
	}
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}
	return TokenUsage{
		InputTokens:  iv.counter.Count(prompt),
		OutputTokens: iv.counter.Count(content),
	}
}

func (iv *Invoker) fail(backendID, model, msg string) InvocationResult {
	iv.logger.Warn("backend invocation failed",
		zap.String("backend", backendID),
		zap.String("error", msg),
	)
	res := InvocationResult{
		Backend: backendID,
		Model:   model,
		Success: false,
		Error:   msg,
	}
	iv.tracker.Record(res)
	return res
}

func (iv *Invoker) limiter(backendID string) *rate.Limiter {
	if iv.cfg.RateLimit == 0 {
		return nil
	}
	iv.mu.Lock()
	defer iv.mu.Unlock()
	lim, ok := iv.limiters[backendID]
	if !ok {
		burst := iv.cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(iv.cfg.RateLimit, burst)
		iv.limiters[backendID] = lim
	}
	return lim
}
