package pets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mihuella/pettrack/internal/geo"
	"github.com/mihuella/pettrack/internal/tracking"
)

// Store reads and writes pets through prepared statements registered by
// internal/db.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewStore wraps a pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Snapshot returns the owner's full pet set in creation order. Stored
// positions are normalized here; a row whose position cannot be resolved
// comes back with a nil Position.
func (s *Store) Snapshot(ctx context.Context, ownerID string) (tracking.SnapshotSet, error) {
	rows, err := s.pool.Query(ctx, "pet_snapshot", ownerID)
	if err != nil {
		return tracking.SnapshotSet{}, fmt.Errorf("query pet snapshot: %w", err)
	}
	defer rows.Close()

	set := tracking.NewSnapshotSet()
	for rows.Next() {
		var (
			id   uuid.UUID
			name string
			raw  []byte
		)
		if err := rows.Scan(&id, &name, &raw); err != nil {
			return tracking.SnapshotSet{}, fmt.Errorf("scan pet snapshot: %w", err)
		}
		pos, _ := geo.ParsePosition(raw)
		set.Add(tracking.PetSnapshot{ID: id.String(), Name: name, Position: pos})
	}
	return set, rows.Err()
}

// Owners lists every owner with at least one pet.
func (s *Store) Owners(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "pet_owners")
	if err != nil {
		return nil, fmt.Errorf("query pet owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pet owner: %w", err)
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

// List returns the owner's pets with profile details.
func (s *Store) List(ctx context.Context, ownerID string) ([]Pet, error) {
	rows, err := s.pool.Query(ctx, "list_pets", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	out := make([]Pet, 0)
	for rows.Next() {
		var (
			p   Pet
			raw []byte
		)
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Age, &p.Breed, &p.Color,
			&p.Weight, &p.Vaccines, &p.ChipLinked, &raw, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		p.Location, _ = geo.ParsePosition(raw)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create registers a pet for the owner. The chip is linked on registration.
func (s *Store) Create(ctx context.Context, ownerID string, np NewPet) (Pet, error) {
	p := Pet{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       np.Name,
		Age:        np.Age,
		Breed:      np.Breed,
		Color:      np.Color,
		Weight:     np.Weight,
		Vaccines:   np.Vaccines,
		ChipLinked: true,
		CreatedAt:  s.now(),
	}
	_, err := s.pool.Exec(ctx, "insert_pet",
		p.ID, p.OwnerID, p.Name, p.Age, p.Breed, p.Color, p.Weight, p.Vaccines, p.ChipLinked, p.CreatedAt)
	if err != nil {
		return Pet{}, fmt.Errorf("insert pet: %w", err)
	}
	return p, nil
}

// UpdateLocation stores a new position and appends it to the history in one
// transaction. The row update fires the pet_changes notification.
func (s *Store) UpdateLocation(ctx context.Context, fix Fix) error {
	if err := fix.Position.Validate(); err != nil {
		return fmt.Errorf("invalid position: %w", err)
	}
	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = s.now()
	}
	if fix.Source == "" {
		fix.Source = SourceApp
	}
	loc, err := json.Marshal(fix.Position)
	if err != nil {
		return fmt.Errorf("encode position: %w", err)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "update_pet_location", fix.PetID, fix.OwnerID, loc)
		if err != nil {
			return fmt.Errorf("update pet location: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		_, err = tx.Exec(ctx, "insert_location_history",
			fix.PetID, fix.OwnerID, fix.Position.Latitude, fix.Position.Longitude, fix.RecordedAt, fix.Source)
		if err != nil {
			return fmt.Errorf("insert location history: %w", err)
		}
		return nil
	})
}

// History returns the pet's most recent positions, newest first.
func (s *Store) History(ctx context.Context, ownerID string, petID uuid.UUID, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	rows, err := s.pool.Query(ctx, "pet_location_history", petID, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query location history: %w", err)
	}
	defer rows.Close()

	out := make([]HistoryEntry, 0)
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.Latitude, &h.Longitude, &h.RecordedAt, &h.Source); err != nil {
			return nil, fmt.Errorf("scan location history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
