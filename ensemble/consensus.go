package ensemble

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Strategy selects how the builder synthesizes one answer from many.
type Strategy string

const (
	// StrategyParallelVote fans out once and picks the priority-ordered
	// first successful answer, annotated with the overlap.
	StrategyParallelVote Strategy = "parallel_vote"
	// StrategyDebate runs the four-round debate protocol.
	StrategyDebate Strategy = "debate"
	// StrategyHybrid votes first and escalates to debate only when the
	// vote disagrees too much.
	StrategyHybrid Strategy = "hybrid"
)

// HybridEscalationThreshold is the vote score below which hybrid escalates
// to a debate.
const HybridEscalationThreshold = 0.8

// BuilderConfig tunes the consensus builder.
type BuilderConfig struct {
	// Strategy is the default strategy when the caller passes "".
	Strategy Strategy `json:"strategy" yaml:"strategy"`
	// EscalationThreshold overrides HybridEscalationThreshold when > 0.
	EscalationThreshold float64 `json:"escalation_threshold" yaml:"escalation_threshold"`
}

// DefaultBuilderConfig returns hybrid with the standard threshold.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Strategy:            StrategyHybrid,
		EscalationThreshold: HybridEscalationThreshold,
	}
}

// Builder turns one prompt into a ConsensusResult using a selectable
// strategy. Any subset of backends failing, including all of them, still
// yields a well-formed result; BuildConsensus errors only on an unknown
// strategy.
type Builder struct {
	cfg          BuilderConfig
	registry     *Registry
	orchestrator *Orchestrator
	scorer       *Scorer
	debate       *DebateCoordinator
	logger       *zap.Logger
}

// NewBuilder wires a Builder. The debate coordinator may be nil, in which
// case debate and hybrid escalation silently fall back to parallel vote.
func NewBuilder(cfg BuilderConfig, registry *Registry, orchestrator *Orchestrator, scorer *Scorer, debate *DebateCoordinator, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.EscalationThreshold <= 0 {
		cfg.EscalationThreshold = HybridEscalationThreshold
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyHybrid
	}
	return &Builder{
		cfg:          cfg,
		registry:     registry,
		orchestrator: orchestrator,
		scorer:       scorer,
		debate:       debate,
		logger:       logger.With(zap.String("component", "consensus_builder")),
	}
}

// BuildConsensus runs the given strategy for one request. Passing an empty
// strategy uses the configured default.
func (b *Builder) BuildConsensus(ctx context.Context, req InvocationRequest, strategy Strategy) (*ConsensusResult, error) {
	if strategy == "" {
		strategy = b.cfg.Strategy
	}

	b.logger.Info("building consensus",
		zap.String("strategy", string(strategy)),
		zap.Int("available_backends", len(b.registry.AvailableBackends())))

	switch strategy {
	case StrategyParallelVote:
		return b.parallelVote(ctx, req), nil
	case StrategyDebate:
		return b.runDebate(ctx, req), nil
	case StrategyHybrid:
		return b.hybrid(ctx, req), nil
	default:
		return nil, fmt.Errorf("unknown consensus strategy %q", strategy)
	}
}

// parallelVote fans out once, scores agreement and answers with the first
// successful backend in registry priority order.
func (b *Builder) parallelVote(ctx context.Context, req InvocationRequest) *ConsensusResult {
	results := b.orchestrator.CallAll(ctx, req)
	return b.voteFromResults(results)
}

// voteFromResults is the scoring half of parallelVote. The answer comes
// from the first successful backend in registry priority order, which
// keeps the pick deterministic across runs.
func (b *Builder) voteFromResults(results map[string]InvocationResult) *ConsensusResult {
	comparison := b.scorer.Compare(results)

	picked := ""
	answer := ""
	for _, id := range b.registry.AvailableBackends() {
		if res, ok := results[id]; ok && res.Success {
			picked = id
			answer = res.Content
			break
		}
	}

	if picked == "" {
		b.logger.Warn("parallel vote: no successful responses")
		return &ConsensusResult{
			Strategy:   string(StrategyParallelVote),
			Consensus:  "",
			Confidence: 0,
			Results:    results,
			Comparison: &comparison,
			Rounds:     1,
			Metadata:   map[string]any{},
		}
	}

	if len(comparison.Overlapping) > 0 {
		answer += "\n\n[Agreed themes: " + strings.Join(comparison.Overlapping, ", ") + "]"
	}

	b.logger.Info("parallel vote complete",
		zap.String("answer_backend", picked),
		zap.Float64("score", comparison.Score))

	return &ConsensusResult{
		Strategy:   string(StrategyParallelVote),
		Consensus:  answer,
		Confidence: comparison.Score,
		Results:    results,
		Comparison: &comparison,
		Rounds:     1,
		Metadata:   map[string]any{"answer_backend": picked},
	}
}

// runDebate delegates to the coordinator, downgrading to a single vote when
// fewer than two backends can take part. The downgrade is silent: it is a
// degraded answer, not an error.
func (b *Builder) runDebate(ctx context.Context, req InvocationRequest) *ConsensusResult {
	if b.debate == nil || len(b.registry.AvailableBackends()) < 2 {
		b.logger.Warn("debate needs at least two backends, downgrading to parallel vote",
			zap.Int("available", len(b.registry.AvailableBackends())))
		res := b.parallelVote(ctx, req)
		res.Downgraded = true
		res.Metadata["downgraded_from"] = string(StrategyDebate)
		return res
	}
	return b.debate.Run(ctx, req)
}

// hybrid votes first and returns immediately on strong agreement; weak
// agreement escalates to a full debate tagged with the initial score.
func (b *Builder) hybrid(ctx context.Context, req InvocationRequest) *ConsensusResult {
	vote := b.parallelVote(ctx, req)
	if vote.Comparison.Score >= b.cfg.EscalationThreshold {
		vote.Strategy = string(StrategyHybrid)
		vote.Metadata["debate_triggered"] = false
		vote.Metadata["initial_consensus_score"] = vote.Comparison.Score
		return vote
	}

	b.logger.Info("hybrid escalating to debate",
		zap.Float64("initial_score", vote.Comparison.Score),
		zap.Float64("threshold", b.cfg.EscalationThreshold))

	res := b.runDebate(ctx, req)
	res.Strategy = string(StrategyHybrid)
	res.Metadata["debate_triggered"] = true
	res.Metadata["initial_consensus_score"] = vote.Comparison.Score
	return res
}
