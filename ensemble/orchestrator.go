package ensemble

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Orchestrator fans one request out to a backend subset and collects every
// result before returning. There is no early short-circuit: ensemble
// agreement math degrades when a voice is dropped mid-round, so the fan-in
// waits for all launched calls. Per-call latency is bounded inside the
// invoker's adapters, not here.
//
// Cancelling the caller's context cooperatively cancels the outstanding
// calls; cancelled calls surface as failed results in the returned map.
type Orchestrator struct {
	invoker  *Invoker
	registry *Registry
	// limit caps concurrent in-flight calls within one round; zero means
	// one goroutine per backend.
	limit  int
	logger *zap.Logger
}

// NewOrchestrator wires the fan-out layer. limit <= 0 launches every call
// concurrently.
func NewOrchestrator(invoker *Invoker, registry *Registry, limit int, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		invoker:  invoker,
		registry: registry,
		limit:    limit,
		logger:   logger.With(zap.String("component", "orchestrator")),
	}
}

// CallAll sends the same request to every backend in the subset (all
// available backends when the subset is empty) and returns one result per
// backend, keyed by id.
func (o *Orchestrator) CallAll(ctx context.Context, req InvocationRequest, backends ...string) map[string]InvocationResult {
	if len(backends) == 0 {
		backends = o.registry.AvailableBackends()
	}
	reqs := make(map[string]InvocationRequest, len(backends))
	for _, id := range backends {
		reqs[id] = req
	}
	return o.CallEach(ctx, reqs)
}

// CallEach sends a distinct request to each backend concurrently. The debate
// rounds use this shape: every participant gets a prompt built from the
// other participants' prior answers.
func (o *Orchestrator) CallEach(ctx context.Context, reqs map[string]InvocationRequest) map[string]InvocationResult {
	if len(reqs) == 0 {
		return map[string]InvocationResult{}
	}

	o.logger.Debug("fanning out", zap.Int("backends", len(reqs)))

	type entry struct {
		id  string
		res InvocationResult
	}
	results := make([]entry, 0, len(reqs))
	ids := make([]string, 0, len(reqs))
	for id := range reqs {
		ids = append(ids, id)
		results = append(results, entry{id: id})
	}

	var g errgroup.Group
	if o.limit > 0 {
		g.SetLimit(o.limit)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			results[i].res = o.invoker.Invoke(ctx, id, reqs[id])
			return nil
		})
	}
	// Invoke never errors; Wait is a pure barrier.
	_ = g.Wait()

	out := make(map[string]InvocationResult, len(results))
	succeeded := 0
	for _, e := range results {
		out[e.id] = e.res
		if e.res.Success {
			succeeded++
		}
	}
	o.logger.Info("fan-in complete",
		zap.Int("backends", len(results)),
		zap.Int("succeeded", succeeded),
	)
	return out
}
