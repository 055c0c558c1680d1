package cost

import (
	"math"
	"testing"

	"github.com/unillm/unillm/providers/ai"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-10
}

func TestPerMillion(t *testing.T) {
	mc := PerMillion(2.50, 10.00)

	if mc.InputCostPerMillion != 2.50 {
		t.Errorf("Expected input cost 2.50, got %f", mc.InputCostPerMillion)
	}

	if mc.OutputCostPerMillion != 10.00 {
		t.Errorf("Expected output cost 10.00, got %f", mc.OutputCostPerMillion)
	}

	if mc.CacheReadCostPerMillion != 0 || mc.CacheWriteCostPerMillion != 0 {
		t.Errorf("Expected no cache rates, got %f read, %f write",
			mc.CacheReadCostPerMillion, mc.CacheWriteCostPerMillion)
	}
}

func TestWithCache(t *testing.T) {
	base := PerMillion(2.50, 10.00)
	mc := base.WithCache(1.25, 2.50)

	if mc.CacheReadCostPerMillion != 1.25 {
		t.Errorf("Expected cache read rate 1.25, got %f", mc.CacheReadCostPerMillion)
	}

	if mc.CacheWriteCostPerMillion != 2.50 {
		t.Errorf("Expected cache write rate 2.50, got %f", mc.CacheWriteCostPerMillion)
	}

	// WithCache returns a copy; the original stays untouched.
	if base.CacheReadCostPerMillion != 0 {
		t.Errorf("Expected original unchanged, got %f", base.CacheReadCostPerMillion)
	}
}

func TestCalculate(t *testing.T) {
	mc := PerMillion(1.0, 2.0) // $1/M input, $2/M output

	cost := mc.Calculate(ai.Usage{
		InputTokens:  1000,
		OutputTokens: 500,
	})

	if !approx(cost.InputCost, 0.001) {
		t.Errorf("Expected input cost 0.001, got %f", cost.InputCost)
	}

	if !approx(cost.OutputCost, 0.001) {
		t.Errorf("Expected output cost 0.001, got %f", cost.OutputCost)
	}

	if !approx(cost.Total(), 0.002) {
		t.Errorf("Expected total 0.002, got %f", cost.Total())
	}
}

func TestCalculateCacheCosts(t *testing.T) {
	mc := PerMillion(1.0, 2.0).WithCache(0.25, 1.0)

	cost := mc.Calculate(ai.Usage{
		InputTokens:              1000,
		OutputTokens:             500,
		CacheReadInputTokens:     2000,
		CacheCreationInputTokens: 500,
	})

	if !approx(cost.CacheReadCost, 0.0005) {
		t.Errorf("Expected cache read cost 0.0005, got %f", cost.CacheReadCost)
	}

	if !approx(cost.CacheWriteCost, 0.0005) {
		t.Errorf("Expected cache write cost 0.0005, got %f", cost.CacheWriteCost)
	}
}

func TestCalculateWithoutCacheRates(t *testing.T) {
	mc := PerMillion(1.0, 2.0)

	// Cached tokens on a model without cache pricing cost nothing.
	cost := mc.Calculate(ai.Usage{
		InputTokens:          1000,
		CacheReadInputTokens: 5000,
	})

	if cost.CacheReadCost != 0 || cost.CacheWriteCost != 0 {
		t.Errorf("Expected zero cache costs, got %f read, %f write",
			cost.CacheReadCost, cost.CacheWriteCost)
	}
}

func TestCalculateMillionTokens(t *testing.T) {
	mc := PerMillion(2.50, 10.00)

	// Test with 1 million tokens of each kind
	cost := mc.Calculate(ai.Usage{
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
	})

	if !approx(cost.InputCost, 2.50) {
		t.Errorf("Expected input cost 2.50, got %f", cost.InputCost)
	}

	if !approx(cost.OutputCost, 10.00) {
		t.Errorf("Expected output cost 10.00, got %f", cost.OutputCost)
	}
}

func TestModelCostString(t *testing.T) {
	mc := PerMillion(2.50, 10.00)
	expected := "Input: $2.500000/M, Output: $10.000000/M"

	if mc.String() != expected {
		t.Errorf("Expected %s, got %s", expected, mc.String())
	}
}

func TestCostString(t *testing.T) {
	c := Cost{InputCost: 0.001, OutputCost: 0.002}
	expected := "$0.003000"

	if c.String() != expected {
		t.Errorf("Expected %s, got %s", expected, c.String())
	}
}
