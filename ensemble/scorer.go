package ensemble

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ScorerConfig tunes the agreement computation. The zero value is not
// usable; call DefaultScorerConfig.
type ScorerConfig struct {
	// AgreementWeight and CoverageWeight blend the two signals. They
	// should sum to 1.
	AgreementWeight float64 `json:"agreement_weight" yaml:"agreement_weight"`
	CoverageWeight  float64 `json:"coverage_weight" yaml:"coverage_weight"`

	// KeyConceptBoost multiplies the blended score when at least three
	// overlapping themes touch a key concept. The boosted score is
	// capped at 1.
	KeyConceptBoost float64 `json:"key_concept_boost" yaml:"key_concept_boost"`

	// KeyConcepts are the substrings that trigger the boost.
	KeyConcepts []string `json:"key_concepts" yaml:"key_concepts"`
}

// DefaultScorerConfig returns the standard 70/30 agreement/coverage blend
// with the hook-domain key concepts.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		AgreementWeight: 0.7,
		CoverageWeight:  0.3,
		KeyConceptBoost: 1.2,
		KeyConcepts: []string{
			"curiosity", "attention", "emotion", "hook", "watching", "second",
		},
	}
}

// Scorer measures cross-backend agreement over extracted theme sets.
type Scorer struct {
	cfg       ScorerConfig
	extractor ThemeExtractor
}

// NewScorer builds a Scorer. A nil extractor gets the lexical default.
func NewScorer(cfg ScorerConfig, extractor ThemeExtractor) *Scorer {
	if extractor == nil {
		extractor = NewLexicalExtractor()
	}
	return &Scorer{cfg: cfg, extractor: extractor}
}

// Compare extracts themes from each successful response and produces the
// agreement comparison. Fewer than two successful responses means there is
// nothing to disagree about: the score is 1 with a note saying why.
func (s *Scorer) Compare(results map[string]InvocationResult) Comparison {
	var sets []ThemeSet
	themeCounts := make(map[string]int)
	themeSets := make(map[string]ThemeSet)
	for backend, res := range results {
		if !res.Success {
			continue
		}
		themes := s.extractor.Extract(res.Content)
		sets = append(sets, themes)
		themeSets[backend] = themes
		themeCounts[backend] = len(themes)
	}

	if len(sets) < 2 {
		return Comparison{
			Score:       1.0,
			ThemeCounts: themeCounts,
			ThemeSets:   themeSets,
			Note:        fmt.Sprintf("only %d successful response(s), agreement trivially perfect", len(sets)),
		}
	}

	// Threshold for a theme to count as overlapping: a 60% majority of
	// successful responders, never fewer than two.
	n := len(sets)
	threshold := int(math.Ceil(0.6 * float64(n)))
	if threshold < 2 {
		threshold = 2
	}

	occurrences := make(map[string]int)
	union := make(ThemeSet)
	for _, set := range sets {
		for t := range set {
			occurrences[t]++
			union.Add(t)
		}
	}

	var overlapping []string
	var overlapCount int
	for t, count := range occurrences {
		if count >= threshold {
			overlapping = append(overlapping, t)
			overlapCount += count
		}
	}
	sort.Strings(overlapping)

	// Agreement is the mean share of backends carrying each overlapping
	// theme; coverage is how much of the union the overlap explains.
	var avgAgreement float64
	if len(overlapping) > 0 {
		avgAgreement = float64(overlapCount) / float64(len(overlapping)*n)
	}
	var coverage float64
	if len(union) > 0 {
		coverage = float64(len(overlapping)) / float64(len(union))
	}

	score := s.cfg.AgreementWeight*avgAgreement + s.cfg.CoverageWeight*coverage
	if s.hasKeyConcept(overlapping) {
		score = math.Min(1.0, score*s.cfg.KeyConceptBoost)
	}

	return Comparison{
		Score:       score,
		ThemeCounts: themeCounts,
		Overlapping: overlapping,
		ThemeSets:   themeSets,
	}
}

// hasKeyConcept reports whether at least three overlapping themes touch a
// high-value concept, the bar for the boost to apply.
func (s *Scorer) hasKeyConcept(overlapping []string) bool {
	hits := 0
	for _, theme := range overlapping {
		for _, concept := range s.cfg.KeyConcepts {
			if strings.Contains(theme, concept) {
				hits++
				break
			}
		}
	}
	return hits >= 3
}
