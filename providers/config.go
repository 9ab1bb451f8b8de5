// Package providers holds the shared adapter configuration and one
// sub-package per backend wire format.
package providers

import "time"

// Config holds the connection settings common to every backend family.
// Timeout bounds a single upstream call; unbounded waits are never allowed,
// so a zero value falls back to the adapter's default.
type Config struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}
