package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists notification records and user contact details in Postgres.
// Statement names refer to prepared statements registered by internal/db.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Append inserts an unread record.
func (s *Store) Append(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, "insert_notification",
		rec.ID, rec.UserID, rec.Title, rec.Body, rec.CreatedAt, rec.Read)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *Store) List(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	rows, err := s.pool.Query(ctx, "list_notifications", userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Body, &r.CreatedAt, &r.Read); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// UnreadCount returns how many of the user's notifications are unread.
func (s *Store) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "count_unread_notifications", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkRead flags one notification as read. Returns ErrNotFound if it does
// not belong to the user.
func (s *Store) MarkRead(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "mark_notification_read", id, userID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear deletes all of the user's notifications.
func (s *Store) Clear(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, "clear_notifications", userID)
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --------------------------------------------------------------------------
// Contacts
// --------------------------------------------------------------------------

// Contact returns the user's push token and email. A user without a row
// has an empty Contact.
func (s *Store) Contact(ctx context.Context, userID string) (Contact, error) {
	var c Contact
	var token, email *string
	err := s.pool.QueryRow(ctx, "user_contact", userID).Scan(&token, &email)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("get contact: %w", err)
	}
	if token != nil {
		c.PushToken = *token
	}
	if email != nil {
		c.Email = *email
	}
	return c, nil
}

// SetPushToken upserts the user's Expo push token.
func (s *Store) SetPushToken(ctx context.Context, userID, token string) error {
	if _, err := s.pool.Exec(ctx, "upsert_push_token", userID, token); err != nil {
		return fmt.Errorf("set push token: %w", err)
	}
	return nil
}
