package cost

import (
	"strings"

	"github.com/unillm/unillm/providers/ai"
)

// Registry maps "provider/model" identifiers to their pricing. It is not
// safe for concurrent mutation; populate it before sharing.
type Registry struct {
	models map[string]ModelCost
}

// NewRegistry returns an empty pricing registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]ModelCost)}
}

// DefaultRegistry returns a registry preloaded with published list prices
// (late 2024). Prices drift; use [Registry.Set] to override entries as
// providers revise them.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Cerebras
	r.Set("cerebras/llama3.1-8b", PerMillion(0.10, 0.10))
	r.Set("cerebras/llama3.1-70b", PerMillion(0.60, 0.60))
	r.Set("cerebras/llama-3.3-70b", PerMillion(0.60, 0.60))

	// Gemini
	r.Set("gemini/gemini-1.5-flash", PerMillion(0.075, 0.30).WithCache(0.01875, 0.075))
	r.Set("gemini/gemini-1.5-pro", PerMillion(1.25, 5.00).WithCache(0.3125, 1.25))
	r.Set("gemini/gemini-2.0-flash", PerMillion(0.10, 0.40))
	r.Set("gemini/gemini-2.0-flash-lite", PerMillion(0.075, 0.30))

	// Anthropic
	r.Set("anthropic/claude-3-5-sonnet-20241022", PerMillion(3.00, 15.00).WithCache(0.30, 3.75))
	r.Set("anthropic/claude-3-5-haiku-20241022", PerMillion(0.80, 4.00).WithCache(0.08, 1.00))
	r.Set("anthropic/claude-3-opus-20240229", PerMillion(15.00, 75.00).WithCache(1.50, 18.75))
	r.Set("anthropic/claude-3-haiku-20240307", PerMillion(0.25, 1.25).WithCache(0.03, 0.30))

	// OpenAI
	r.Set("openai/gpt-4o", PerMillion(2.50, 10.00).WithCache(1.25, 2.50))
	r.Set("openai/gpt-4o-mini", PerMillion(0.15, 0.60).WithCache(0.075, 0.15))
	r.Set("openai/o1", PerMillion(15.00, 60.00).WithCache(7.50, 15.00))
	r.Set("openai/o1-mini", PerMillion(3.00, 12.00).WithCache(1.50, 3.00))

	return r
}

// Get returns the pricing for a "provider/model" identifier. The legacy
// "claude" provider spelling is folded into "anthropic" before lookup.
func (r *Registry) Get(model string) (ModelCost, bool) {
	mc, ok := r.models[normalizeModel(model)]
	return mc, ok
}

// Set adds or replaces the pricing for a model.
func (r *Registry) Set(model string, mc ModelCost) {
	r.models[normalizeModel(model)] = mc
}

// CalculateCost computes the cost breakdown for a model's usage. The
// second return value reports whether the model had registered pricing.
func (r *Registry) CalculateCost(model string, usage ai.Usage) (Cost, bool) {
	mc, ok := r.Get(model)
	if !ok {
		return Cost{}, false
	}
	return mc.Calculate(usage), true
}

func normalizeModel(model string) string {
	if rest, ok := strings.CutPrefix(model, "claude/"); ok {
		return "anthropic/" + rest
	}
	return model
}
