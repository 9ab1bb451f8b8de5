package ensemble

import (
	"sync"

	"go.uber.org/zap"
)

// UsageTracker is the process-wide cost and token accumulator. It is created
// once per engine, injected where needed, and never reset for the life of
// the process. Multiple orchestrator goroutines record concurrently, so all
// mutation happens under the mutex.
//
// Every attempt, failed or not, counts toward TotalCalls; only successful
// attempts contribute tokens and cost.
type UsageTracker struct {
	mu      sync.Mutex
	stats   UsageStats
	metrics *Metrics
	logger  *zap.Logger
}

// NewUsageTracker creates an empty tracker. metrics may be nil.
func NewUsageTracker(metrics *Metrics, logger *zap.Logger) *UsageTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageTracker{
		stats:   UsageStats{ByBackend: make(map[string]BackendUsage)},
		metrics: metrics,
		logger:  logger.With(zap.String("component", "usage_tracker")),
	}
}

// Record accumulates one invocation attempt.
func (t *UsageTracker) Record(res InvocationResult) {
	t.mu.Lock()
	t.stats.TotalCalls++
	bu := t.stats.ByBackend[res.Backend]
	bu.Calls++
	if res.Success {
		tokens := int64(res.Usage.Total())
		t.stats.TotalTokens += tokens
		t.stats.TotalCost += res.Cost
		bu.Tokens += tokens
		bu.Cost += res.Cost
	}
	t.stats.ByBackend[res.Backend] = bu
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.observe(res)
	}
}

// Stats returns a deep copy of the accumulated totals.
func (t *UsageTracker) Stats() UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.stats
	out.ByBackend = make(map[string]BackendUsage, len(t.stats.ByBackend))
	for id, bu := range t.stats.ByBackend {
		out.ByBackend[id] = bu
	}
	return out
}
