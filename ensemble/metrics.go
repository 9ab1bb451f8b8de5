package ensemble

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the engine's call, token and cost counters to Prometheus.
// The counters mirror UsageTracker and share its monotonicity guarantee.
type Metrics struct {
	calls  *prometheus.CounterVec
	tokens *prometheus.CounterVec
	cost   *prometheus.CounterVec
}

// NewMetrics registers the engine collectors on reg. Passing
// prometheus.DefaultRegisterer is the usual choice; a dedicated registry
// keeps tests isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clipbrain",
			Subsystem: "ensemble",
			Name:      "backend_calls_total",
			Help:      "Backend invocation attempts by outcome.",
		}, []string{"backend", "outcome"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clipbrain",
			Subsystem: "ensemble",
			Name:      "backend_tokens_total",
			Help:      "Tokens consumed by successful calls, by direction.",
		}, []string{"backend", "direction"}),
		cost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clipbrain",
			Subsystem: "ensemble",
			Name:      "backend_cost_usd_total",
			Help:      "Dollar cost of successful calls.",
		}, []string{"backend"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.tokens, m.cost)
	}
	return m
}

func (m *Metrics) observe(res InvocationResult) {
	outcome := "success"
	if !res.Success {
		outcome = "failure"
	}
	m.calls.WithLabelValues(res.Backend, outcome).Inc()
	if res.Success {
		m.tokens.WithLabelValues(res.Backend, "input").Add(float64(res.Usage.InputTokens))
		m.tokens.WithLabelValues(res.Backend, "output").Add(float64(res.Usage.OutputTokens))
		m.cost.WithLabelValues(res.Backend).Add(res.Cost)
	}
}
