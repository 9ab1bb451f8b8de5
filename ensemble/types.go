package ensemble

// InvocationRequest is one prompt fanned out to a backend subset.
type InvocationRequest struct {
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

// TokenUsage normalizes token accounting across backend families.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int { return u.InputTokens + u.OutputTokens }

// InvocationResult is the outcome of exactly one (backend, request) attempt.
// A failed attempt carries Success=false and Error; it never surfaces as a
// Go error to callers.
type InvocationResult struct {
	Backend string     `json:"backend"`
	Model   string     `json:"model,omitempty"`
	Content string     `json:"content"`
	Usage   TokenUsage `json:"usage"`
	Cost    float64    `json:"cost"`
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
}

// Comparison is the cross-backend agreement analysis for one round.
type Comparison struct {
	Score       float64             `json:"score"` // always in [0,1]
	ThemeCounts map[string]int      `json:"theme_counts,omitempty"`
	Overlapping []string            `json:"overlapping_themes,omitempty"`
	ThemeSets   map[string]ThemeSet `json:"-"`
	Note        string              `json:"note,omitempty"`
}

// DebateRound captures the per-backend text produced in one debate round.
type DebateRound struct {
	Round     int               `json:"round"`
	Responses map[string]string `json:"responses"`
}

// ConsensusResult is the engine's synthesized answer. It is well-formed for
// every input, including total backend failure (empty consensus at
// confidence 0).
type ConsensusResult struct {
	Strategy   string                      `json:"strategy"`
	Downgraded bool                        `json:"downgraded,omitempty"`
	Consensus  string                      `json:"consensus"`
	Confidence float64                     `json:"confidence"` // always in [0,1]
	Results    map[string]InvocationResult `json:"results"`
	Comparison *Comparison                 `json:"comparison,omitempty"`
	Rounds     int                         `json:"rounds"`
	Debate     []DebateRound               `json:"debate,omitempty"`
	Metadata   map[string]any              `json:"metadata,omitempty"`
}

// BackendUsage is the per-backend slice of UsageStats.
type BackendUsage struct {
	Calls  int64   `json:"calls"`
	Tokens int64   `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// UsageStats is a point-in-time copy of the process-wide accumulator.
// Every field is monotonically increasing over the tracker's lifetime.
type UsageStats struct {
	TotalCalls  int64                   `json:"total_calls"`
	TotalTokens int64                   `json:"total_tokens"`
	TotalCost   float64                 `json:"total_cost"`
	ByBackend   map[string]BackendUsage `json:"by_backend"`
}
