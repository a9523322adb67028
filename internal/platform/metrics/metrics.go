// Package metrics keeps lock-free request counters for the admin surface.
// A nil *Collector is a valid no-op, which is how the disabled state is
// represented.
package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	requests    atomic.Uint64
	errors      atomic.Uint64
	rateLimited atomic.Uint64
	durationMs  atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requests.Add(1)
	if status >= 500 {
		c.errors.Add(1)
	}
	if status == 429 {
		c.rateLimited.Add(1)
	}
	c.durationMs.Add(uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	total := c.requests.Load()
	totalMs := c.durationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      c.errors.Load(),
		"rateLimitedTotal": c.rateLimited.Load(),
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
	}
}
