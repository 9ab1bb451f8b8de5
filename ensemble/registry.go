package ensemble

import (
	"context"
	"sync"

	"github.com/jervinho777/clipbrain/llm"
	"go.uber.org/zap"
)

// Status is a backend's availability. It is decided once when the backend is
// registered and can only move from available to unavailable; the reverse
// transition requires a process restart.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

// Pricing is a backend's declared cost table in USD per million tokens.
type Pricing struct {
	InputPer1M  float64 `json:"input_per_1m" yaml:"input_per_1m"`
	OutputPer1M float64 `json:"output_per_1m" yaml:"output_per_1m"`
}

// Cost computes the dollar cost of one call.
func (p Pricing) Cost(u TokenUsage) float64 {
	return float64(u.InputTokens)/1e6*p.InputPer1M + float64(u.OutputTokens)/1e6*p.OutputPer1M
}

// BackendSpec describes one configured backend: its adapter, primary and
// fallback model ids, and cost table.
type BackendSpec struct {
	ID            string
	Provider      llm.Provider
	Model         string
	FallbackModel string
	Pricing       Pricing
	Status        Status
	StatusReason  string
}

// Registry holds the process-scoped backend descriptors in registration
// order. Registration order doubles as the deterministic priority order used
// when a strategy needs a "first available" answer.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	backends map[string]*BackendSpec
	logger   *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		backends: make(map[string]*BackendSpec),
		logger:   logger.With(zap.String("component", "backend_registry")),
	}
}

// Register adds a backend descriptor. A spec with a nil Provider or an empty
// Model is registered as unavailable so the rest of the engine can report a
// meaningful failure instead of panicking on it. Re-registering an id
// replaces the descriptor but keeps its position in the priority order.
func (r *Registry) Register(spec BackendSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if spec.Status == "" {
		spec.Status = StatusAvailable
	}
	if spec.Provider == nil {
		spec.Status = StatusUnavailable
		if spec.StatusReason == "" {
			spec.StatusReason = "no client constructed"
		}
	} else if spec.Model == "" {
		spec.Status = StatusUnavailable
		spec.StatusReason = "no model configured"
	}

	if _, exists := r.backends[spec.ID]; !exists {
		r.order = append(r.order, spec.ID)
	}
	r.backends[spec.ID] = &spec

	if spec.Status == StatusAvailable {
		r.logger.Info("backend registered",
			zap.String("backend", spec.ID),
			zap.String("model", spec.Model),
			zap.String("fallback_model", spec.FallbackModel),
		)
	} else {
		r.logger.Warn("backend unavailable",
			zap.String("backend", spec.ID),
			zap.String("reason", spec.StatusReason),
		)
	}
}

// MarkUnavailable flips a backend to unavailable. The transition is one-way:
// marking an already unavailable backend keeps its original reason.
func (r *Registry) MarkUnavailable(id, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spec, ok := r.backends[id]
	if !ok || spec.Status == StatusUnavailable {
		return
	}
	spec.Status = StatusUnavailable
	spec.StatusReason = reason
	r.logger.Warn("backend marked unavailable",
		zap.String("backend", id),
		zap.String("reason", reason),
	)
}

// Get returns a copy of the descriptor for id.
func (r *Registry) Get(id string) (BackendSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.backends[id]
	if !ok {
		return BackendSpec{}, false
	}
	return *spec, true
}

// AvailableBackends returns the ids of available backends in priority order.
func (r *Registry) AvailableBackends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.backends[id].Status == StatusAvailable {
			out = append(out, id)
		}
	}
	return out
}

// All returns every registered id in priority order, regardless of status.
func (r *Registry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.backends)
}

// Health probes every available backend's adapter. Results are diagnostic
// only; an unhealthy probe does not change registry status and a healthy one
// never resurrects a backend that failed at construction.
func (r *Registry) Health(ctx context.Context) map[string]*llm.HealthStatus {
	r.mu.RLock()
	specs := make([]*BackendSpec, 0, len(r.order))
	for _, id := range r.order {
		if s := r.backends[id]; s.Status == StatusAvailable {
			specs = append(specs, s)
		}
	}
	r.mu.RUnlock()

	out := make(map[string]*llm.HealthStatus, len(specs))
	for _, s := range specs {
		hs, err := s.Provider.HealthCheck(ctx)
		if err != nil && hs == nil {
			hs = &llm.HealthStatus{Healthy: false}
		}
		out[s.ID] = hs
	}
	return out
}
