package core

// limiter.go bounds the number of report runs in flight.
//
// A run holds one slot of a weighted semaphore for its whole duration. When
// every slot is taken, callers wait up to maxWait before failing with
// ErrTooManyReports. WaitForDrain acquires the full weight, so it returns only
// once every run has released its slot.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyReports is returned when all run slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyReports = errors.New("too many concurrent reports, please try again later")

// DefaultMaxConcurrentReports is the default limit for parallel runs.
const DefaultMaxConcurrentReports = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// RunLimiter controls concurrent report generation.
type RunLimiter struct {
	sem     *semaphore.Weighted
	max     int64
	maxWait time.Duration
	active  atomic.Int64
}

// NewRunLimiter creates a limiter that allows at most maxConcurrent
// simultaneous runs. Callers that cannot acquire a slot within maxWait
// receive ErrTooManyReports.
func NewRunLimiter(maxConcurrent int, maxWait time.Duration) *RunLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentReports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &RunLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     int64(maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a run slot.
// The caller MUST call Release() when the run completes (use defer).
func (l *RunLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		// Distinguish caller cancellation from our own wait timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyReports
	}
	l.active.Add(1)
	return nil
}

// TryAcquire takes a slot without blocking.
func (l *RunLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *RunLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of runs in flight.
func (l *RunLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the maximum allowed concurrent runs.
func (l *RunLimiter) MaxConcurrent() int {
	return int(l.max)
}

// Available returns the number of free slots.
func (l *RunLimiter) Available() int {
	return int(l.max - l.active.Load())
}

// WaitForDrain blocks until every active run has finished or ctx is done.
// New runs are held off while it waits.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, l.max); err != nil {
		return err
	}
	l.sem.Release(l.max)
	return nil
}

// LimiterStatus is a snapshot of the limiter for health checks.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *RunLimiter) Status() LimiterStatus {
	active := int(l.active.Load())
	return LimiterStatus{
		Active:        active,
		Available:     int(l.max) - active,
		MaxConcurrent: int(l.max),
	}
}
