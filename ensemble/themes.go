package ensemble

import (
	"sort"
	"strings"
	"unicode"
)

// ThemeSet is the set of canonical tokens extracted from one response.
type ThemeSet map[string]struct{}

func (s ThemeSet) Add(theme string) { s[theme] = struct{}{} }

func (s ThemeSet) Has(theme string) bool {
	_, ok := s[theme]
	return ok
}

// Sorted returns the themes in lexical order, for deterministic output.
func (s ThemeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ThemeExtractor turns free text into a canonical theme set. The lexical
// implementation below is a cheap proxy for semantic similarity; anything
// smarter (an embedding-based extractor, say) can replace it behind this
// interface without touching the scorer.
type ThemeExtractor interface {
	Extract(text string) ThemeSet
	Normalize(theme string) string
}

// stopwords is the filler vocabulary dropped before theme extraction.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for
	of with by is are was were be been being have has had do does did will
	would should can could may might must that this these those it its as
	from up about into through during before after above below between
	under again further then once here there when where why how all both
	each few more most other some such no nor not only own same so than
	too very one also`) {
		stopwords[w] = struct{}{}
	}
}

// keyPhrases are curated multi-word expressions that matter in the hook
// domain. Each match emits a single underscore-joined token.
var keyPhrases = []string{
	"first second", "first 1", "first 2", "first 3", "first seconds",
	"1-2 seconds", "1-3 seconds", "3 seconds",
	"video hook", "great hook", "strong hook",
	"spark curiosity", "create curiosity", "sparks curiosity",
	"grab attention", "grabs attention", "capture attention",
	"stop scroll", "stops scroll", "make viewer", "makes viewer",
	"keep watching", "keeps watching", "need to watch",
	"emotional response", "evoke emotion",
	"information gap", "curiosity gap", "knowledge gap",
	"bold claim", "surprising visual", "unexpected",
	"clear promise", "promise value", "specific value",
	"relatable problem", "pain point",
	"scroll away", "scroll past",
}

// canonicalThemes are the normalization targets. They are fixed points of
// Normalize, which keeps the rule chain idempotent even where a canonical
// form would otherwise trip a later suffix rule ("first_seconds" ends in a
// plural "s").
var canonicalThemes = map[string]struct{}{
	"first_seconds":   {},
	"grab_attention":  {},
	"stop_scroll":     {},
	"spark_curiosity": {},
	"curiosity_gap":   {},
	"keep_watching":   {},
	"emotion":         {},
	"evoke":           {},
}

// LexicalExtractor implements ThemeExtractor with stopword filtering,
// curated phrase detection and an ordered surface-variant rule chain.
type LexicalExtractor struct{}

// NewLexicalExtractor returns the default lexical theme extractor.
func NewLexicalExtractor() *LexicalExtractor { return &LexicalExtractor{} }

// Extract lowercases the text, emits one joined token per detected key
// phrase, adds every non-stopword single token of length >= 3 that is not a
// pure number, and normalizes the lot.
func (e *LexicalExtractor) Extract(text string) ThemeSet {
	lower := strings.ToLower(text)
	out := make(ThemeSet)

	for _, phrase := range keyPhrases {
		if strings.Contains(lower, phrase) {
			out.Add(e.Normalize(strings.ReplaceAll(phrase, " ", "_")))
		}
	}

	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		word = strings.Trim(word, "-")
		if len(word) < 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if isDigits(word) {
			continue
		}
		out.Add(e.Normalize(word))
	}

	return out
}

// Normalize collapses surface variants to one canonical token through an
// ordered rule chain. It is idempotent: canonical outputs are fixed points.
func (e *LexicalExtractor) Normalize(theme string) string {
	theme = strings.ToLower(strings.TrimSpace(theme))

	if _, ok := canonicalThemes[theme]; ok {
		return theme
	}

	// time references: "first N seconds" variants
	for _, marker := range []string{"first_1", "first_2", "first_3", "1-2", "1-3", "2-3"} {
		if strings.Contains(theme, marker) {
			return "first_seconds"
		}
	}
	if strings.Contains(theme, "3_seconds") || strings.Contains(theme, "three_seconds") {
		return "first_seconds"
	}

	// attention phrases
	if strings.Contains(theme, "attention") && (strings.Contains(theme, "grab") || strings.Contains(theme, "capture")) {
		return "grab_attention"
	}
	if strings.Contains(theme, "stop") && strings.Contains(theme, "scroll") {
		return "stop_scroll"
	}

	// curiosity phrases
	if strings.Contains(theme, "curiosity") && (strings.Contains(theme, "spark") || strings.Contains(theme, "create")) {
		return "spark_curiosity"
	}
	if strings.Contains(theme, "curiosity_gap") || strings.Contains(theme, "information_gap") {
		return "curiosity_gap"
	}

	// watching phrases
	if (strings.Contains(theme, "keep") && strings.Contains(theme, "watch")) || strings.Contains(theme, "need_to_watch") {
		return "keep_watching"
	}

	// emotion variants
	if strings.Contains(theme, "emotion") {
		return "emotion"
	}
	if strings.Contains(theme, "evoke") || strings.Contains(theme, "evoking") {
		return "evoke"
	}

	// verb and plural stems, run to a fixed point so re-normalizing a
	// normalized theme is a no-op
	for {
		if strings.HasSuffix(theme, "ing") && len(theme) > 5 {
			theme = theme[:len(theme)-3]
			continue
		}
		if strings.HasSuffix(theme, "s") && !strings.HasSuffix(theme, "ss") && len(theme) > 3 {
			theme = theme[:len(theme)-1]
			continue
		}
		break
	}

	return theme
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
