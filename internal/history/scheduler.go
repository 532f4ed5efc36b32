package history

// scheduler.go prunes expired runs in the background.
//
// The scheduler runs once on start, then on every tick of the interval. A
// failed prune is logged and retried on the next tick; it never stops the
// service.

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// PruneConfig holds configuration for the retention scheduler.
type PruneConfig struct {
	Retention time.Duration   // Runs older than this are deleted (default: 30 days)
	Interval  time.Duration   // How often to prune (default: 1h)
	Clock     clockwork.Clock // Defaults to the real clock
}

func (c *PruneConfig) setDefaults() {
	if c.Retention <= 0 {
		c.Retention = 30 * 24 * time.Hour
	}
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
}

// StartPruneScheduler blocks, pruning store until ctx is cancelled.
func StartPruneScheduler(ctx context.Context, store Store, cfg PruneConfig) {
	cfg.setDefaults()
	slog.Info("history prune scheduler started",
		"retention", cfg.Retention,
		"interval", cfg.Interval,
	)

	pruneOnce(ctx, store, cfg)

	ticker := cfg.Clock.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history prune scheduler stopped")
			return
		case <-ticker.Chan():
			pruneOnce(ctx, store, cfg)
		}
	}
}

func pruneOnce(ctx context.Context, store Store, cfg PruneConfig) {
	start := cfg.Clock.Now()
	cutoff := start.Add(-cfg.Retention)

	removed, err := store.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}
	slog.Info("pruned report history",
		"runs_removed", removed,
		"cutoff", cutoff,
		"duration_ms", cfg.Clock.Since(start).Milliseconds(),
	)
}
