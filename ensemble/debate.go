package ensemble

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// RubricWeights is the hand-tuned scoring policy for debate round 4. The
// weights came out of empirical iteration, not derivation, so they stay
// configurable rather than hard-coded.
type RubricWeights struct {
	TerminologyPerHit float64 `json:"terminology_per_hit" yaml:"terminology_per_hit"`
	TerminologyCap    float64 `json:"terminology_cap" yaml:"terminology_cap"`
	ReasoningPerHit   float64 `json:"reasoning_per_hit" yaml:"reasoning_per_hit"`
	ReasoningCap      float64 `json:"reasoning_cap" yaml:"reasoning_cap"`
	HedgePerHit       float64 `json:"hedge_per_hit" yaml:"hedge_per_hit"`
	HedgeCap          float64 `json:"hedge_cap" yaml:"hedge_cap"`
	EvidencePerHit    float64 `json:"evidence_per_hit" yaml:"evidence_per_hit"`
	EvidenceCap       float64 `json:"evidence_cap" yaml:"evidence_cap"`

	// Length sweet spot: detailed but not bloated.
	LengthBonusMedium float64 `json:"length_bonus_medium" yaml:"length_bonus_medium"`
	LengthBonusLong   float64 `json:"length_bonus_long" yaml:"length_bonus_long"`
	MediumMinChars    int     `json:"medium_min_chars" yaml:"medium_min_chars"`
	MediumMaxChars    int     `json:"medium_max_chars" yaml:"medium_max_chars"`
}

// DefaultRubricWeights returns the tuned production policy.
func DefaultRubricWeights() RubricWeights {
	return RubricWeights{
		TerminologyPerHit: 0.05,
		TerminologyCap:    0.25,
		ReasoningPerHit:   0.06,
		ReasoningCap:      0.30,
		HedgePerHit:       0.05,
		HedgeCap:          0.20,
		EvidencePerHit:    0.05,
		EvidenceCap:       0.25,
		LengthBonusMedium: 0.20,
		LengthBonusLong:   0.10,
		MediumMinChars:    800,
		MediumMaxChars:    2500,
	}
}

// Rubric vocabulary. Substring matches over the lowercased refinement.
var (
	terminologyTerms = []string{
		"paradox", "information gap", "curiosity gap", "question hook",
		"statement hook", "pattern interrupt", "open loop",
	}
	reasoningTerms = []string{
		"watch time", "watchtime", "retention", "completion rate",
		"scroll-stop", "drop-off", "algorithm", "because",
	}
	hedgeTerms = []string{
		"maybe", "could", "might", "possibly", "perhaps",
	}
	evidenceTerms = []string{
		"pattern", "power word", "example", "for instance", "data shows",
		"learned", "research",
	}
)

const initialPreamble = `You are one voice in a panel of independent experts.
Give a concrete, falsifiable answer. State specifics, not generalities:
name the exact technique, the exact timing, the exact wording you would
use. No hedging.`

// DebateCoordinator runs the four-round debate protocol: initial answers,
// cross-critique, refinement, then deterministic rubric scoring. Rounds are
// strictly sequential; within a round all calls fan out concurrently.
type DebateCoordinator struct {
	registry     *Registry
	orchestrator *Orchestrator
	rubric       RubricWeights
	logger       *zap.Logger
}

// NewDebateCoordinator wires a coordinator. Zero-valued weights get the
// default rubric.
func NewDebateCoordinator(registry *Registry, orchestrator *Orchestrator, rubric RubricWeights, logger *zap.Logger) *DebateCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rubric == (RubricWeights{}) {
		rubric = DefaultRubricWeights()
	}
	return &DebateCoordinator{
		registry:     registry,
		orchestrator: orchestrator,
		rubric:       rubric,
		logger:       logger.With(zap.String("component", "debate")),
	}
}

// Run executes all four rounds and returns a well-formed result even when
// every backend fails at every round.
func (d *DebateCoordinator) Run(ctx context.Context, req InvocationRequest) *ConsensusResult {
	participants := d.registry.AvailableBackends()
	d.logger.Info("debate starting", zap.Strings("participants", participants))

	// Round 1: independent initial answers.
	initialReq := req
	if initialReq.System != "" {
		initialReq.System = initialPreamble + "\n\n" + initialReq.System
	} else {
		initialReq.System = initialPreamble
	}
	initial := d.orchestrator.CallAll(ctx, initialReq, participants...)

	answered := make([]string, 0, len(participants))
	for _, id := range participants {
		if res, ok := initial[id]; ok && res.Success && res.Content != "" {
			answered = append(answered, id)
		}
	}
	d.logger.Info("debate round 1 complete", zap.Int("answered", len(answered)))

	// Round 2: each answered backend critiques every answer but its own.
	critiques := d.critiqueRound(ctx, req, initial, answered)

	// Round 3: each answered backend defends its own answer against the
	// collected critiques.
	refinements := d.refinementRound(ctx, req, initial, critiques, answered)

	// Round 4: deterministic rubric scoring and selection.
	return d.selectConsensus(initial, critiques, refinements, answered)
}

func (d *DebateCoordinator) critiqueRound(ctx context.Context, req InvocationRequest, initial map[string]InvocationResult, answered []string) map[string]string {
	reqs := make(map[string]InvocationRequest, len(answered))
	for _, critic := range answered {
		var others []string
		n := 0
		for _, id := range answered {
			if id == critic {
				continue
			}
			n++
			others = append(others, fmt.Sprintf("--- ANSWER %d ---\n%s", n, initial[id].Content))
		}
		if len(others) == 0 {
			continue
		}
		reqs[critic] = InvocationRequest{
			Prompt: fmt.Sprintf(`Original question:
%s

You are reviewing %d answers from other experts to the same question.

%s

Identify concrete flaws in each answer: factual errors, vague claims,
reasoning gaps. Then state which answer number is best and why.`,
				req.Prompt, len(others), strings.Join(others, "\n\n")),
			System:      "You are a rigorous reviewer. Be specific and direct; vague criticism is useless.",
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		}
	}

	results := d.orchestrator.CallEach(ctx, reqs)
	critiques := make(map[string]string)
	for id, res := range results {
		if res.Success && res.Content != "" {
			critiques[id] = res.Content
		}
	}
	d.logger.Info("debate round 2 complete", zap.Int("critiques", len(critiques)))
	return critiques
}

func (d *DebateCoordinator) refinementRound(ctx context.Context, req InvocationRequest, initial map[string]InvocationResult, critiques map[string]string, answered []string) map[string]string {
	critiqueIDs := make([]string, 0, len(critiques))
	for id := range critiques {
		critiqueIDs = append(critiqueIDs, id)
	}
	sort.Strings(critiqueIDs)

	var sb strings.Builder
	for _, id := range critiqueIDs {
		fmt.Fprintf(&sb, "--- CRITIQUE (%s) ---\n%s\n\n", id, critiques[id])
	}
	allCritiques := sb.String()

	reqs := make(map[string]InvocationRequest, len(answered))
	for _, id := range answered {
		reqs[id] = InvocationRequest{
			Prompt: fmt.Sprintf(`Original question:
%s

Your original answer:
%s

The panel's critiques:
%s
Produce your final, defended answer. Fix every valid criticism, keep what
survived scrutiny, and commit to specifics. No hedging.`,
				req.Prompt, initial[id].Content, allCritiques),
			System:      "Give your final answer. It must stand on its own without this conversation.",
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		}
	}

	results := d.orchestrator.CallEach(ctx, reqs)
	refinements := make(map[string]string)
	for id, res := range results {
		if res.Success && res.Content != "" {
			refinements[id] = res.Content
		}
	}
	d.logger.Info("debate round 3 complete", zap.Int("refinements", len(refinements)))
	return refinements
}

// selectConsensus is round 4: pure scoring over the texts produced in
// rounds 1-3, no backend calls. Identical inputs always select the same
// answer at the same confidence.
func (d *DebateCoordinator) selectConsensus(initial map[string]InvocationResult, critiques, refinements map[string]string, answered []string) *ConsensusResult {
	rounds := []DebateRound{
		{Round: 1, Responses: contentsOf(initial)},
		{Round: 2, Responses: critiques},
		{Round: 3, Responses: refinements},
	}

	base := &ConsensusResult{
		Strategy: string(StrategyDebate),
		Results:  initial,
		Rounds:   4,
		Debate:   rounds,
		Metadata: map[string]any{"critique_count": len(critiques)},
	}

	scores := make(map[string]float64, len(refinements))
	bestID := ""
	bestScore := -1.0
	// Walk in registry priority order with a strictly-greater comparison
	// so ties and reruns always resolve the same way.
	for _, id := range answered {
		text, ok := refinements[id]
		if !ok {
			continue
		}
		score := d.scoreRefinement(text)
		scores[id] = score
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}
	base.Metadata["score_distribution"] = scores

	if bestID != "" {
		critiqueBonus := 0.03 * float64(len(critiques))
		if critiqueBonus > 0.15 {
			critiqueBonus = 0.15
		}
		confidence := bestScore + critiqueBonus
		if confidence > 0.95 {
			confidence = 0.95
		}
		base.Consensus = refinements[bestID]
		base.Confidence = confidence
		base.Metadata["best_backend"] = bestID
		d.logger.Info("debate complete",
			zap.String("best_backend", bestID),
			zap.Float64("score", bestScore),
			zap.Float64("confidence", confidence))
		return base
	}

	// No usable refinement: fall back to the first non-empty initial
	// answer at half confidence.
	for _, id := range answered {
		if res := initial[id]; res.Content != "" {
			base.Consensus = res.Content
			base.Confidence = 0.5
			base.Metadata["best_backend"] = id
			base.Metadata["fallback"] = "initial_answer"
			d.logger.Warn("debate produced no refinements, using initial answer",
				zap.String("backend", id))
			return base
		}
	}

	d.logger.Warn("debate produced nothing at any round")
	base.Consensus = ""
	base.Confidence = 0
	return base
}

// scoreRefinement applies the rubric to one refinement. Every component and
// the total are clamped to [0,1].
func (d *DebateCoordinator) scoreRefinement(text string) float64 {
	lower := strings.ToLower(text)
	w := d.rubric

	score := clamp01(min64(w.TerminologyCap, float64(countHits(lower, terminologyTerms))*w.TerminologyPerHit))
	score += clamp01(min64(w.ReasoningCap, float64(countHits(lower, reasoningTerms))*w.ReasoningPerHit))
	score -= clamp01(min64(w.HedgeCap, float64(countHits(lower, hedgeTerms))*w.HedgePerHit))
	score += clamp01(min64(w.EvidenceCap, float64(countHits(lower, evidenceTerms))*w.EvidencePerHit))

	if n := len(lower); n >= w.MediumMinChars && n <= w.MediumMaxChars {
		score += clamp01(w.LengthBonusMedium)
	} else if n > w.MediumMaxChars {
		score += clamp01(w.LengthBonusLong)
	}

	return clamp01(score)
}

func countHits(text string, terms []string) int {
	hits := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			hits++
		}
	}
	return hits
}

func contentsOf(results map[string]InvocationResult) map[string]string {
	out := make(map[string]string, len(results))
	for id, res := range results {
		if res.Success {
			out[id] = res.Content
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
