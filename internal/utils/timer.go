package utils

import "time"

// Timer captures elapsed wall-clock time for latency reporting. [NewTimer]
// starts measuring immediately; [Timer.Stop] freezes the measurement, which
// [Timer.GetDuration] then returns. A zero duration means Stop has not been
// called yet.
type Timer struct {
	startTime time.Time
	duration  time.Duration
}

// NewTimer returns a running timer anchored at the current time.
func NewTimer() *Timer {
	return &Timer{startTime: time.Now()}
}

// Start re-anchors the timer at the current time, discarding any measurement
// in progress. Lets one timer be reused across phases.
func (t *Timer) Start() {
	t.startTime = time.Now()
}

// Stop freezes the elapsed time since construction or the last Start.
// Calling Stop again overwrites the previous measurement.
func (t *Timer) Stop() {
	t.duration = time.Since(t.startTime)
}

// GetDuration returns the duration frozen by the most recent Stop, or zero
// while the timer is still running.
func (t *Timer) GetDuration() time.Duration {
	return t.duration
}
