package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PurgeResult counts deleted rows.
type PurgeResult struct {
	Notifications int64
	History       int64
}

// Purge deletes read notifications and location history older than their
// retention windows. A zero retention skips that table. Also run on demand
// by `pettrack purge`.
func Purge(ctx context.Context, exec Execer, cfg Config, now time.Time) (PurgeResult, error) {
	var res PurgeResult

	if cfg.NotificationRetention > 0 {
		tag, err := exec.Exec(ctx, "purge_read_notifications", now.Add(-cfg.NotificationRetention))
		if err != nil {
			return res, fmt.Errorf("purge notifications: %w", err)
		}
		res.Notifications = tag.RowsAffected()
	}

	if cfg.HistoryRetention > 0 {
		tag, err := exec.Exec(ctx, "purge_location_history", now.Add(-cfg.HistoryRetention))
		if err != nil {
			return res, fmt.Errorf("purge location history: %w", err)
		}
		res.History = tag.RowsAffected()
	}
	return res, nil
}
