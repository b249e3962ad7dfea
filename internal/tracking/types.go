// Package tracking turns the stream of pet snapshot sets delivered for an
// owner into movement events.
//
// Pipeline: snapshot set → Evaluate (diff against previous set, measure from
// last notified position) → events → caller fans them out to notification
// sinks. Evaluation passes for one owner are serialized by Tracker.
package tracking

import (
	"time"

	"github.com/mihuella/pettrack/internal/geo"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// DefaultMinDistanceMeters is the movement threshold. A pet must move
// strictly further than this from its last notified position.
const DefaultMinDistanceMeters = 500.0

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// PetSnapshot is a read-only copy of one pet record as delivered by the
// snapshot source. Position is nil when the record has no resolvable position.
type PetSnapshot struct {
	ID       string
	Name     string
	Position *geo.Coordinate
}

// SnapshotSet is the full collection of an owner's pets at one point in
// time, keyed by pet id and iterated in insertion order.
type SnapshotSet struct {
	order []string
	byID  map[string]PetSnapshot
}

// NewSnapshotSet builds a set from pets in the given order. A repeated id
// replaces the earlier entry but keeps its original position in the order.
func NewSnapshotSet(pets ...PetSnapshot) SnapshotSet {
	s := SnapshotSet{byID: make(map[string]PetSnapshot, len(pets))}
	for _, p := range pets {
		s.Add(p)
	}
	return s
}

// Add inserts or replaces a pet.
func (s *SnapshotSet) Add(p PetSnapshot) {
	if s.byID == nil {
		s.byID = make(map[string]PetSnapshot)
	}
	if _, exists := s.byID[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.byID[p.ID] = p
}

// Get returns the pet with the given id.
func (s SnapshotSet) Get(id string) (PetSnapshot, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Len returns the number of pets in the set.
func (s SnapshotSet) Len() int {
	return len(s.order)
}

// Pets returns the pets in insertion order.
func (s SnapshotSet) Pets() []PetSnapshot {
	out := make([]PetSnapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// TrackedPetState is the per-pet memory the detector keeps between passes.
// LastNotifiedPosition moves only when an event is emitted, so distance is
// always measured from the last acted-upon point.
type TrackedPetState struct {
	LastNotifiedPosition *geo.Coordinate
	// Notified guards against a second event for the same pet within one
	// pass. Reset at the start of every pass.
	Notified bool
}

// StateMap is the detector state for one owner, keyed by pet id.
type StateMap map[string]*TrackedPetState

// EventKind distinguishes a newly seen pet from a moved one.
type EventKind string

const (
	EventRegistered EventKind = "registered"
	EventMoved      EventKind = "moved"
)

// MovementEvent is produced once per qualifying transition.
type MovementEvent struct {
	Kind           EventKind
	PetID          string
	PetName        string
	DistanceMeters float64 // rounded to whole metres; 0 for registered
	Position       *geo.Coordinate
	OccurredAt     time.Time
}
