// Package pets stores pet records and their reported positions. It is the
// snapshot source for the movement tracker: every change to a pet row fires
// pg_notify('pet_changes', ...) from a trigger installed by internal/db.
package pets

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mihuella/pettrack/internal/geo"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// Location fix sources.
const (
	SourceApp  = "app"
	SourceChip = "chip"
)

// ErrNotFound is returned when a pet does not exist for the owner.
var ErrNotFound = errors.New("pet not found")

// Pet is a stored pet profile.
type Pet struct {
	ID         uuid.UUID       `json:"id"`
	OwnerID    string          `json:"owner_id"`
	Name       string          `json:"name"`
	Age        string          `json:"age"`
	Breed      string          `json:"breed"`
	Color      string          `json:"color"`
	Weight     string          `json:"weight,omitempty"`
	Vaccines   string          `json:"vaccines,omitempty"`
	ChipLinked bool            `json:"chip_linked"`
	Location   *geo.Coordinate `json:"location,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewPet is the registration payload.
type NewPet struct {
	Name     string `json:"name" validate:"required,max=80"`
	Age      string `json:"age" validate:"required,max=20"`
	Breed    string `json:"breed" validate:"required,max=80"`
	Color    string `json:"color" validate:"required,max=40"`
	Weight   string `json:"weight" validate:"max=20"`
	Vaccines string `json:"vaccines" validate:"max=500"`
}

// Fix is one reported position for a pet.
type Fix struct {
	PetID      uuid.UUID
	OwnerID    string
	Position   geo.Coordinate
	RecordedAt time.Time
	Source     string
}

// HistoryEntry is a past position.
type HistoryEntry struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
	Source     string    `json:"source"`
}
