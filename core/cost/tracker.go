package cost

import (
	"sync"

	"github.com/unillm/unillm/providers/ai"
)

// Tracker accumulates token usage and cost across requests. It is safe
// for concurrent use.
type Tracker struct {
	mu               sync.Mutex
	inputTokens      int64
	outputTokens     int64
	cacheReadTokens  int64
	cacheWriteTokens int64
	totalCost        float64
	requestCount     int
}

// NewTracker returns a zeroed tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record adds one request's usage to the running totals. The cost is
// optional; pass nil when the model had no registered pricing so token
// counts still accumulate.
func (t *Tracker) Record(usage ai.Usage, cost *Cost) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inputTokens += int64(usage.InputTokens)
	t.outputTokens += int64(usage.OutputTokens)
	t.cacheReadTokens += int64(usage.CacheReadInputTokens)
	t.cacheWriteTokens += int64(usage.CacheCreationInputTokens)
	if cost != nil {
		t.totalCost += cost.Total()
	}
	t.requestCount++
}

// InputTokens returns the total input tokens recorded.
func (t *Tracker) InputTokens() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTokens
}

// OutputTokens returns the total output tokens recorded.
func (t *Tracker) OutputTokens() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outputTokens
}

// CacheReadTokens returns the total cached input tokens recorded.
func (t *Tracker) CacheReadTokens() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cacheReadTokens
}

// CacheWriteTokens returns the total cache creation tokens recorded.
func (t *Tracker) CacheWriteTokens() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cacheWriteTokens
}

// TotalCost returns the accumulated cost in USD.
func (t *Tracker) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCost
}

// RequestCount returns the number of requests recorded.
func (t *Tracker) RequestCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requestCount
}

// Reset zeroes all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inputTokens = 0
	t.outputTokens = 0
	t.cacheReadTokens = 0
	t.cacheWriteTokens = 0
	t.totalCost = 0
	t.requestCount = 0
}
