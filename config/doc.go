// Package config loads the engine configuration with the priority
// defaults -> YAML file -> explicit overrides, and validates the backend
// roster before the engine comes up.
package config
