// Package maintenance runs periodic background tasks as Go tickers. All
// scheduled work is driven from Go since the service is already long-running
// (required for LISTEN/NOTIFY).
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration // Old read notifications + location history
	CatchUpInterval time.Duration // Re-evaluate owners whose NOTIFY was missed

	NotificationRetention time.Duration
	HistoryRetention      time.Duration
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval:       6 * time.Hour,
		CatchUpInterval:       2 * time.Minute,
		NotificationRetention: 30 * 24 * time.Hour,
		HistoryRetention:      90 * 24 * time.Hour,
	}
}

// Sweeper re-evaluates every tracked owner.
type Sweeper interface {
	RefreshAll(ctx context.Context) int
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, exec Execer, sweeper Sweeper, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"catchup", cfg.CatchUpInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.CleanupInterval > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "cleanup", func() { cleanup(ctx, exec, cfg, logger) })
	}

	// Catch-up: sweep for pet changes missed while the listener reconnected
	if cfg.CatchUpInterval > 0 && sweeper != nil {
		t := time.NewTicker(cfg.CatchUpInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "catchup", func() { catchUpSweep(ctx, sweeper, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, name string, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

func cleanup(ctx context.Context, exec Execer, cfg Config, logger *slog.Logger) {
	res, err := Purge(ctx, exec, cfg, time.Now().UTC())
	if err != nil {
		logger.Warn("Cleanup: purge failed", "error", err)
	}
	if res.Notifications > 0 || res.History > 0 {
		logger.Info("Cleanup: purged old rows",
			"notifications", res.Notifications, "history", res.History)
	}
}

// catchUpSweep refreshes every tracked owner. Trackers compare against their
// last evaluated snapshot, so owners with no missed change emit nothing.
func catchUpSweep(ctx context.Context, sweeper Sweeper, logger *slog.Logger) {
	start := time.Now()
	n := sweeper.RefreshAll(ctx)
	logger.Debug("Catch-up sweep finished",
		"owners", n, "duration", time.Since(start).Round(time.Millisecond))
}
