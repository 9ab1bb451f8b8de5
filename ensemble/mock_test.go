package ensemble

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jervinho777/clipbrain/llm"
)

// mockProvider is a scriptable llm.Provider for exercising the invoker and
// the strategies without network traffic.
type mockProvider struct {
	name     string
	calls    atomic.Int32
	reply    func(req *llm.ChatRequest) (*llm.ChatResponse, error)
	perModel map[string]func(req *llm.ChatRequest) (*llm.ChatResponse, error)
}

func newMockProvider(name string) *mockProvider {
	m := &mockProvider{name: name, perModel: map[string]func(*llm.ChatRequest) (*llm.ChatResponse, error){}}
	m.reply = func(*llm.ChatRequest) (*llm.ChatResponse, error) {
		return textResponse("ok"), nil
	}
	return m
}

// WithContent makes every call succeed with the given text.
func (m *mockProvider) WithContent(text string) *mockProvider {
	m.reply = func(*llm.ChatRequest) (*llm.ChatResponse, error) {
		return textResponse(text), nil
	}
	return m
}

// WithUsage makes every call succeed with text and explicit usage metadata.
func (m *mockProvider) WithUsage(text string, input, output int) *mockProvider {
	m.reply = func(*llm.ChatRequest) (*llm.ChatResponse, error) {
		resp := textResponse(text)
		resp.Usage = llm.ChatUsage{PromptTokens: input, CompletionTokens: output, TotalTokens: input + output}
		return resp, nil
	}
	return m
}

// WithError makes every call fail.
func (m *mockProvider) WithError(err error) *mockProvider {
	m.reply = func(*llm.ChatRequest) (*llm.ChatResponse, error) {
		return nil, err
	}
	return m
}

// WithModelReply overrides behavior for one model id, leaving the default
// reply in place for everything else. Used to script primary-fails,
// fallback-succeeds scenarios.
func (m *mockProvider) WithModelReply(model string, fn func(req *llm.ChatRequest) (*llm.ChatResponse, error)) *mockProvider {
	m.perModel[model] = fn
	return m
}

// WithReply installs an arbitrary handler.
func (m *mockProvider) WithReply(fn func(req *llm.ChatRequest) (*llm.ChatResponse, error)) *mockProvider {
	m.reply = fn
	return m
}

func (m *mockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fn, ok := m.perModel[req.Model]; ok {
		return fn(req)
	}
	return m.reply(req)
}

func (m *mockProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true, Latency: time.Millisecond}, nil
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) callCount() int { return int(m.calls.Load()) }

func textResponse(text string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Model: "mock",
		Choices: []llm.ChatChoice{
			{Message: llm.Message{Role: llm.RoleAssistant, Content: text}, FinishReason: "stop"},
		},
	}
}

// overloadedError is the canonical fallback-class failure used in tests.
func overloadedError(provider string) *llm.Error {
	return &llm.Error{
		Code:       llm.ErrModelOverloaded,
		Message:    "model overloaded",
		HTTPStatus: 503,
		Retryable:  true,
		Provider:   provider,
	}
}

// testEngine bundles the wiring most strategy tests need: a registry, a
// tracker without metrics and an invoker/orchestrator pair over it.
type testEngine struct {
	registry     *Registry
	tracker      *UsageTracker
	invoker      *Invoker
	orchestrator *Orchestrator
}

func newTestEngine(specs ...BackendSpec) *testEngine {
	registry := NewRegistry(nil)
	for _, spec := range specs {
		registry.Register(spec)
	}
	tracker := NewUsageTracker(nil, nil)
	invoker := NewInvoker(registry, tracker, nil, DefaultInvokerConfig(), nil)
	orchestrator := NewOrchestrator(invoker, registry, 0, nil)
	return &testEngine{
		registry:     registry,
		tracker:      tracker,
		invoker:      invoker,
		orchestrator: orchestrator,
	}
}

func (e *testEngine) builder() *Builder {
	scorer := NewScorer(DefaultScorerConfig(), nil)
	debate := NewDebateCoordinator(e.registry, e.orchestrator, DefaultRubricWeights(), nil)
	return NewBuilder(DefaultBuilderConfig(), e.registry, e.orchestrator, scorer, debate, nil)
}

func backendSpec(id string, p llm.Provider) BackendSpec {
	return BackendSpec{
		ID:       id,
		Provider: p,
		Model:    "mock-model",
		Pricing:  Pricing{InputPer1M: 1, OutputPer1M: 2},
	}
}
