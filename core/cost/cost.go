package cost

import (
	"fmt"

	"github.com/unillm/unillm/providers/ai"
)

// Cost is the USD cost breakdown for one request's token usage.
type Cost struct {
	// InputCost is the cost of the input tokens in USD
	InputCost float64 `json:"input_cost"`

	// OutputCost is the cost of the output tokens in USD
	OutputCost float64 `json:"output_cost"`

	// CacheReadCost is the cost of cached input tokens in USD, for
	// providers that bill cache hits at a discounted rate
	CacheReadCost float64 `json:"cache_read_cost,omitempty"`

	// CacheWriteCost is the cost of cache creation in USD
	CacheWriteCost float64 `json:"cache_write_cost,omitempty"`
}

// Total returns the total cost in USD.
func (c Cost) Total() float64 {
	return c.InputCost + c.OutputCost + c.CacheReadCost + c.CacheWriteCost
}

// String returns a formatted string representation of the total cost.
func (c Cost) String() string {
	return fmt.Sprintf("$%.6f", c.Total())
}

// ModelCost represents the pricing structure for a language model.
// Costs are expressed in USD per million tokens. A cache rate of zero
// means the model has no published cache pricing.
//
// Example usage:
//
//	modelCost := cost.PerMillion(2.50, 10.00).WithCache(1.25, 2.50)
//	breakdown := modelCost.Calculate(usage)
type ModelCost struct {
	// InputCostPerMillion is the cost in USD per 1 million input tokens
	InputCostPerMillion float64 `json:"input_cost_per_million"`

	// OutputCostPerMillion is the cost in USD per 1 million output tokens
	OutputCostPerMillion float64 `json:"output_cost_per_million"`

	// CacheReadCostPerMillion is the cost in USD per 1 million cached
	// input tokens (optional)
	CacheReadCostPerMillion float64 `json:"cache_read_cost_per_million,omitempty"`

	// CacheWriteCostPerMillion is the cost in USD per 1 million tokens
	// written into the provider's prompt cache (optional)
	CacheWriteCostPerMillion float64 `json:"cache_write_cost_per_million,omitempty"`
}

// PerMillion builds a ModelCost from per-million input and output rates.
func PerMillion(input, output float64) ModelCost {
	return ModelCost{
		InputCostPerMillion:  input,
		OutputCostPerMillion: output,
	}
}

// WithCache returns a copy of the ModelCost with cache read and write
// rates set.
func (mc ModelCost) WithCache(read, write float64) ModelCost {
	mc.CacheReadCostPerMillion = read
	mc.CacheWriteCostPerMillion = write
	return mc
}

// Calculate computes the cost breakdown for the given usage.
func (mc ModelCost) Calculate(usage ai.Usage) Cost {
	cost := Cost{
		InputCost:  tokenCost(usage.InputTokens, mc.InputCostPerMillion),
		OutputCost: tokenCost(usage.OutputTokens, mc.OutputCostPerMillion),
	}

	if mc.CacheReadCostPerMillion > 0 && usage.CacheReadInputTokens > 0 {
		cost.CacheReadCost = tokenCost(usage.CacheReadInputTokens, mc.CacheReadCostPerMillion)
	}

	if mc.CacheWriteCostPerMillion > 0 && usage.CacheCreationInputTokens > 0 {
		cost.CacheWriteCost = tokenCost(usage.CacheCreationInputTokens, mc.CacheWriteCostPerMillion)
	}

	return cost
}

// String returns a formatted string representation of the model costs.
func (mc ModelCost) String() string {
	return fmt.Sprintf("Input: $%.6f/M, Output: $%.6f/M",
		mc.InputCostPerMillion, mc.OutputCostPerMillion)
}

func tokenCost(tokens int, perMillion float64) float64 {
	return (float64(tokens) / 1_000_000.0) * perMillion
}
