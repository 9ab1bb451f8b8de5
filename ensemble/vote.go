package ensemble

import (
	"context"
	"regexp"
	"strconv"
)

// DefaultQuickScore is returned when no backend produces a usable score.
const DefaultQuickScore = 50

var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)score[:\s]+(\d+)`),
	regexp.MustCompile(`(?im)rating[:\s]+(\d+)`),
	regexp.MustCompile(`(?im)(\d+)\s*/\s*100`),
	regexp.MustCompile(`(?im)(\d+)\s*points`),
	regexp.MustCompile(`(?m)^(\d+)$`),
	regexp.MustCompile(`\b(\d+)\b`),
}

// ExtractScore pulls the first plausible 0-100 score out of free text,
// trying explicit "score:"/"rating:" patterns before bare numbers. The
// second return is false when nothing in range was found.
func ExtractScore(text string) (int, bool) {
	for _, re := range scorePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 || n > 100 {
			continue
		}
		return n, true
	}
	return 0, false
}

// QuickScores fans the prompt out to up to maxBackends backends in priority
// order, asking each for a single 0-100 score, and parses what comes back.
// Backends that fail or return unparsable text are skipped; if nothing
// usable comes back, the result is the single DefaultQuickScore.
func (b *Builder) QuickScores(ctx context.Context, prompt string, maxBackends int) []int {
	backends := b.registry.AvailableBackends()
	if maxBackends > 0 && len(backends) > maxBackends {
		backends = backends[:maxBackends]
	}
	if len(backends) == 0 {
		return []int{DefaultQuickScore}
	}

	req := InvocationRequest{
		Prompt:      prompt,
		System:      "You are an evaluator. Return only a number from 0 to 100.",
		MaxTokens:   100,
		Temperature: 0.3,
	}
	results := b.orchestrator.CallAll(ctx, req, backends...)

	var scores []int
	for _, id := range backends {
		res, ok := results[id]
		if !ok || !res.Success {
			continue
		}
		if n, ok := ExtractScore(res.Content); ok {
			scores = append(scores, n)
		}
	}
	if len(scores) == 0 {
		b.logger.Warn("quick score: no parsable scores, using default")
		return []int{DefaultQuickScore}
	}
	return scores
}

// Vote asks every available backend to pick one of the given options and
// returns the per-option tally plus the winning option. Responses that
// match no option count for nothing. An empty option list wins "".
func (b *Builder) Vote(ctx context.Context, question string, options []string) (winner string, tally map[string]int) {
	tally = make(map[string]int, len(options))
	if len(options) == 0 {
		return "", tally
	}

	prompt := question + "\n\nOptions:\n"
	for i, opt := range options {
		prompt += strconv.Itoa(i+1) + ". " + opt + "\n"
	}
	prompt += "\nAnswer with the number of the single best option."

	req := InvocationRequest{
		Prompt:      prompt,
		System:      "You are a decisive judge. Answer with one option number only.",
		MaxTokens:   50,
		Temperature: 0.2,
	}
	results := b.orchestrator.CallAll(ctx, req)

	for _, res := range results {
		if !res.Success {
			continue
		}
		n, ok := ExtractScore(res.Content)
		if !ok || n < 1 || n > len(options) {
			continue
		}
		tally[options[n-1]]++
	}

	best := -1
	for _, opt := range options {
		if tally[opt] > best {
			best = tally[opt]
			winner = opt
		}
	}
	if best <= 0 {
		b.logger.Warn("vote: no backend picked a valid option")
		return "", tally
	}
	return winner, tally
}
