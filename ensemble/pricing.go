package ensemble

import "strings"

// modelRates is the built-in cost table in USD per million tokens. Entries
// are matched by prefix so dated model ids (claude-opus-4-20250514) resolve
// to their family rate.
var modelRates = []struct {
	prefix string
	rates  Pricing
}{
	{"gpt-5", Pricing{InputPer1M: 10.0, OutputPer1M: 30.0}},
	{"gpt-4o-mini", Pricing{InputPer1M: 0.15, OutputPer1M: 0.60}},
	{"gpt-4o", Pricing{InputPer1M: 2.5, OutputPer1M: 10.0}},
	{"claude-opus", Pricing{InputPer1M: 15.0, OutputPer1M: 75.0}},
	{"claude-sonnet", Pricing{InputPer1M: 3.0, OutputPer1M: 15.0}},
	{"gemini-2.5-pro", Pricing{InputPer1M: 1.25, OutputPer1M: 5.0}},
	{"gemini-2.0-flash", Pricing{InputPer1M: 0.075, OutputPer1M: 0.30}},
	{"deepseek-chat", Pricing{InputPer1M: 0.27, OutputPer1M: 1.10}},
	{"deepseek-reasoner", Pricing{InputPer1M: 0.55, OutputPer1M: 2.19}},
	{"grok-4", Pricing{InputPer1M: 0.20, OutputPer1M: 0.50}},
	{"grok-3", Pricing{InputPer1M: 3.0, OutputPer1M: 15.0}},
}

// PricingFor resolves a model id to its cost table by longest-prefix match.
// Unknown models cost zero; missing a rate must never fail a call.
func PricingFor(model string) Pricing {
	var best Pricing
	bestLen := 0
	for _, e := range modelRates {
		if strings.HasPrefix(model, e.prefix) && len(e.prefix) > bestLen {
			best = e.rates
			bestLen = len(e.prefix)
		}
	}
	return best
}
