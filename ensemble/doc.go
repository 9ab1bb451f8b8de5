// Package ensemble implements the multi-backend consensus engine: it fans
// one request out to N heterogeneous text-generation backends, compares the
// free-text answers through a lexical theme-overlap heuristic, and optionally
// runs a four-round critique/refinement debate to converge on a single
// high-confidence answer.
//
// The engine tolerates any subset of backends failing, including all of
// them; total failure yields an empty consensus at confidence zero, never an
// error. Cost and token usage are accumulated process-wide in UsageTracker.
package ensemble
