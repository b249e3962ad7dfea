// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema bootstrap and health checking.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mihuella/pettrack/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// EnsureSchema applies the embedded schema over a plain connection. Prepared
// statements reference these tables, so this must run before New.
func EnsureSchema(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect for schema: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// statements lists every named query the stores and background jobs use.
var statements = map[string]string{
	// Health
	"health_check": "SELECT 1",

	// Pets: tracker snapshot source
	"pet_snapshot": "SELECT id, name, location FROM pets WHERE owner_id = $1 ORDER BY created_at, id",
	"pet_owners":   "SELECT DISTINCT owner_id FROM pets ORDER BY owner_id",

	// Pets: profile
	"list_pets": `SELECT id, owner_id, name, age, breed, color, weight, vaccines, chip_linked, location, created_at
		FROM pets WHERE owner_id = $1 ORDER BY created_at, id`,
	"insert_pet": `INSERT INTO pets (id, owner_id, name, age, breed, color, weight, vaccines, chip_linked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,

	// Pets: location
	"update_pet_location": "UPDATE pets SET location = $3, updated_at = NOW() WHERE id = $1 AND owner_id = $2",
	"insert_location_history": `INSERT INTO location_history (pet_id, owner_id, latitude, longitude, recorded_at, source)
		VALUES ($1, $2, $3, $4, $5, $6)`,
	"pet_location_history": `SELECT latitude, longitude, recorded_at, source FROM location_history
		WHERE pet_id = $1 AND owner_id = $2 ORDER BY recorded_at DESC LIMIT $3`,
	"purge_location_history": "DELETE FROM location_history WHERE recorded_at < $1",

	// Notifications inbox
	"insert_notification": `INSERT INTO notifications (id, user_id, title, body, created_at, read)
		VALUES ($1, $2, $3, $4, $5, $6)`,
	"list_notifications": `SELECT id, user_id, title, body, created_at, read FROM notifications
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
	"count_unread_notifications": "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read",
	"mark_notification_read":     "UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2",
	"clear_notifications":        "DELETE FROM notifications WHERE user_id = $1",
	"purge_read_notifications":   "DELETE FROM notifications WHERE read AND created_at < $1",

	// Users: contact channels
	"user_contact": "SELECT push_token, email FROM users WHERE id = $1",
	"upsert_push_token": `INSERT INTO users (id, push_token) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET push_token = EXCLUDED.push_token, updated_at = NOW()`,

	// Chip purchase
	"user_shipping_address": "SELECT shipping_address FROM users WHERE id = $1",
	"upsert_shipping_address": `INSERT INTO users (id, shipping_address) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET shipping_address = EXCLUDED.shipping_address, updated_at = NOW()`,
	"insert_chip_order": `INSERT INTO chip_orders (id, user_id, pet_id, shipping_address, card_brand, card_last4, amount_cents, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"list_chip_orders": `SELECT id, user_id, pet_id, shipping_address, card_brand, card_last4, amount_cents, status, created_at
		FROM chip_orders WHERE user_id = $1 ORDER BY created_at DESC`,
}

// registerPreparedStatements prepares every statement on a fresh connection.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
