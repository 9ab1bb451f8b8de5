package ensemble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PriorityOrderFollowsRegistration(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register(backendSpec("first", newMockProvider("first")))
	r.Register(backendSpec("second", newMockProvider("second")))
	r.Register(backendSpec("third", newMockProvider("third")))

	assert.Equal(t, []string{"first", "second", "third"}, r.AvailableBackends())
	assert.Equal(t, []string{"first", "second", "third"}, r.All())
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_NilProviderIsUnavailable(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register(BackendSpec{ID: "dead", Model: "m"})

	spec, ok := r.Get("dead")
	require.True(t, ok)
	assert.Equal(t, StatusUnavailable, spec.Status)
	assert.NotEmpty(t, spec.StatusReason)
	assert.Empty(t, r.AvailableBackends())
	assert.Equal(t, []string{"dead"}, r.All())
}

func TestRegistry_MissingModelIsUnavailable(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register(BackendSpec{ID: "nomodel", Provider: newMockProvider("x")})

	spec, _ := r.Get("nomodel")
	assert.Equal(t, StatusUnavailable, spec.Status)
}

func TestRegistry_MarkUnavailableIsOneWay(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register(backendSpec("a", newMockProvider("a")))

	r.MarkUnavailable("a", "credential revoked")
	spec, _ := r.Get("a")
	assert.Equal(t, StatusUnavailable, spec.Status)
	assert.Equal(t, "credential revoked", spec.StatusReason)

	// A second mark keeps the original reason.
	r.MarkUnavailable("a", "other reason")
	spec, _ = r.Get("a")
	assert.Equal(t, "credential revoked", spec.StatusReason)

	assert.Empty(t, r.AvailableBackends())
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register(backendSpec("a", newMockProvider("a")))

	spec, _ := r.Get("a")
	spec.Model = "mutated"

	fresh, _ := r.Get("a")
	assert.Equal(t, "mock-model", fresh.Model)
}

func TestRegistry_HealthProbesOnlyAvailable(t *testing.T) {
	t.Parallel()
	r := NewRegistry(nil)
	r.Register(backendSpec("alive", newMockProvider("alive")))
	r.Register(BackendSpec{ID: "dead", Model: "m"})

	health := r.Health(context.Background())
	require.Contains(t, health, "alive")
	assert.NotContains(t, health, "dead")
	assert.True(t, health["alive"].Healthy)

	// Probes are diagnostic: status is untouched.
	assert.Equal(t, []string{"alive"}, r.AvailableBackends())
}

func TestPricing_Cost(t *testing.T) {
	t.Parallel()
	p := Pricing{InputPer1M: 3, OutputPer1M: 15}
	cost := p.Cost(TokenUsage{InputTokens: 1_000_000, OutputTokens: 100_000})
	assert.InDelta(t, 3+1.5, cost, 1e-12)
}

func TestPricingFor_PrefixMatch(t *testing.T) {
	t.Parallel()
	sonnet := PricingFor("claude-sonnet-4-5-20250929")
	assert.Greater(t, sonnet.InputPer1M, 0.0)

	opus := PricingFor("claude-opus-4-20250514")
	assert.Greater(t, opus.InputPer1M, sonnet.InputPer1M)

	unknown := PricingFor("mystery-model-9000")
	assert.Zero(t, unknown.InputPer1M)
	assert.Zero(t, unknown.OutputPer1M)
}
