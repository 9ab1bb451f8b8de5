// Package llm defines the normalized contract between the consensus engine
// and heterogeneous text-generation backends: chat request/response types,
// the Provider adapter interface and a structured error taxonomy that the
// invoker uses to decide between fallback retry, failure capture and
// pass-through.
package llm
