// Package backoff provides the wait schedule for retrying provider calls.
package backoff

import (
	"math/rand"
	"sync"
	"time"
)

type Config struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter spreads each interval by up to this fraction in either
	// direction, so records retrying in lockstep drift apart.
	Jitter float64
}

// Exponential produces a growing wait between attempts. One instance
// tracks one retry sequence; Reset starts the sequence over.
type Exponential struct {
	mu      sync.Mutex
	current time.Duration
	config  Config
}

func New(cfg Config) *Exponential {
	if cfg.Initial <= 0 {
		cfg.Initial = 500 * time.Millisecond
	}
	if cfg.Max <= 0 {
		cfg.Max = 30 * time.Second
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = 2
	}
	return &Exponential{config: cfg}
}

func (e *Exponential) Next() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current <= 0 {
		e.current = e.config.Initial
	} else {
		e.current = time.Duration(float64(e.current) * e.config.Multiplier)
		if e.current > e.config.Max {
			e.current = e.config.Max
		}
	}
	interval := e.current
	if e.config.Jitter > 0 {
		span := float64(interval) * e.config.Jitter
		interval = interval + time.Duration((rand.Float64()*2-1)*span)
		if interval < 0 {
			interval = e.config.Initial
		}
	}
	return interval
}

// NextAfter returns the schedule's next interval, stretched to honor a
// provider's own wait hint when that is longer.
func (e *Exponential) NextAfter(hint time.Duration) time.Duration {
	interval := e.Next()
	if hint > interval {
		return hint
	}
	return interval
}

func (e *Exponential) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = 0
}
