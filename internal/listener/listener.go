// Package listener provides a Postgres LISTEN/NOTIFY consumer for real-time
// pet change processing. It holds a dedicated pgx connection (not from the
// pool) listening on the `pet_changes` channel.
//
// Every insert, delete or location update on the pets table fires pg_notify
// from a trigger. The listener hands the owner to the movement engine, which
// reloads that owner's snapshot and dispatches any resulting notifications.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	channel          = "pet_changes"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// ChangeEvent is the JSON payload from pg_notify('pet_changes', ...).
type ChangeEvent struct {
	OwnerID string `json:"owner_id"`
	PetID   string `json:"pet_id"`
	Op      string `json:"op"` // INSERT, UPDATE, DELETE
}

// Runner re-evaluates one owner's pets.
type Runner interface {
	Run(ctx context.Context, ownerID string) (int, error)
}

// Start opens a dedicated connection and listens on the pet_changes channel.
// It reconnects automatically on connection loss. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, runner Runner, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, runner, logger)
		if ctx.Err() != nil {
			logger.Info("Pet change listener stopped (context cancelled)")
			return
		}

		logger.Error("Pet change listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, runner Runner, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Pet change listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		event, err := ParseChange(notification.Payload)
		if err != nil {
			logger.Warn("Failed to parse pet change event",
				"payload", notification.Payload, "error", err)
			continue
		}

		logger.Debug("Pet change received",
			"owner_id", event.OwnerID, "pet_id", event.PetID, "op", event.Op)

		// Trackers serialize per owner, so overlapping passes are safe.
		go HandleChange(ctx, runner, event, logger)
	}
}

// ParseChange decodes a notification payload.
func ParseChange(payload string) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ChangeEvent{}, fmt.Errorf("decode payload: %w", err)
	}
	if ev.OwnerID == "" {
		return ChangeEvent{}, fmt.Errorf("payload has no owner_id")
	}
	return ev, nil
}

// HandleChange runs one evaluation pass for the event's owner.
func HandleChange(ctx context.Context, runner Runner, event ChangeEvent, logger *slog.Logger) {
	sent, err := runner.Run(ctx, event.OwnerID)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Movement evaluation failed",
				"owner_id", event.OwnerID, "pet_id", event.PetID, "error", err)
		}
		return
	}
	if sent > 0 {
		logger.Info("Movement notifications dispatched",
			"owner_id", event.OwnerID, "op", event.Op, "count", sent)
	}
}
