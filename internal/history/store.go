// Package history records a summary of every report run.
//
// Two stores are provided: MemoryStore, a bounded in-process ring used when no
// database is configured, and PostgresStore, which persists runs to the
// report_runs table.
package history

import (
	"context"
	"errors"
	"time"
)

// DefaultLimit is used by Recent when the caller passes a non-positive limit.
const DefaultLimit = 50

// MaxLimit caps how many runs a single Recent call returns.
const MaxLimit = 500

// ErrInvalidRun is returned by Record for a run without an ID.
var ErrInvalidRun = errors.New("invalid run: missing id")

// Run is the summary of one report generation.
type Run struct {
	ID          string        `json:"id"`
	FileName    string        `json:"file_name"`
	Digest      string        `json:"digest"`
	Rows        int           `json:"rows"`
	Sections    int           `json:"sections"`
	Diagnostics int           `json:"diagnostics"`
	Format      string        `json:"format,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	ClientIP    string        `json:"client_ip,omitempty"`
	UserAgent   string        `json:"user_agent,omitempty"`
}

// Store persists run summaries.
type Store interface {
	// Record saves a run.
	Record(ctx context.Context, run Run) error
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)
	// Prune deletes runs that started before the cutoff and reports how many
	// were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
