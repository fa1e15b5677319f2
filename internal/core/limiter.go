package core

// limiter.go bounds the number of parses running at once.
//
// Parsing holds a whole file and its typed columns in memory, so the HTTP
// API admits at most a fixed number of concurrent parses. When every slot
// is taken a request waits up to maxWait, then fails with ErrTooManyParses.
// WaitForDrain lets shutdown wait for in-flight parses to finish.

import (
	"context"
	"errors"
	"time"
)

// ErrTooManyParses is returned when no parse slot frees up before the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyParses = errors.New("too many concurrent parses, please try again later")

const (
	// DefaultMaxConcurrentParses is the slot count used when none is configured.
	DefaultMaxConcurrentParses = 4

	// DefaultMaxWaitTime is how long Acquire waits for a slot by default.
	DefaultMaxWaitTime = 30 * time.Second
)

// ParseLimiter is a counting semaphore for parses.
type ParseLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
}

// LimiterStatus is a snapshot of a ParseLimiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// NewParseLimiter creates a limiter with maxConcurrent slots. Non-positive
// arguments select the defaults.
func NewParseLimiter(maxConcurrent int, maxWait time.Duration) *ParseLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentParses
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &ParseLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to the limiter's maxWait.
// It returns ctx.Err() if ctx ends first. The caller must Release the slot.
func (l *ParseLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyParses
	}
}

// TryAcquire takes a slot if one is free without waiting.
func (l *ParseLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ParseLimiter) Release() {
	<-l.slots
}

// Status reports slot usage.
func (l *ParseLimiter) Status() LimiterStatus {
	active := len(l.slots)
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - active,
		MaxConcurrent: cap(l.slots),
	}
}

// WaitForDrain blocks until no parse holds a slot or ctx ends.
func (l *ParseLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for len(l.slots) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
