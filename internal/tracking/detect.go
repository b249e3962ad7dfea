package tracking

import (
	"math"
	"time"

	"github.com/mihuella/pettrack/internal/geo"
)

// EvaluateOptions tunes a single evaluation pass.
type EvaluateOptions struct {
	MinDistanceMeters float64
	Now               time.Time
}

// Evaluate diffs curr against prev and returns the movement events for this
// pass, mutating state for every emitted event. Events follow curr's order.
//
// Pets missing from curr are dropped from state; a pet that reappears later
// is treated as new.
func Evaluate(prev, curr SnapshotSet, state StateMap, opts EvaluateOptions) []MovementEvent {
	if opts.MinDistanceMeters <= 0 {
		opts.MinDistanceMeters = DefaultMinDistanceMeters
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	for _, st := range state {
		st.Notified = false
	}

	var events []MovementEvent
	for _, pet := range curr.Pets() {
		before, seen := prev.Get(pet.ID)
		if !seen {
			state[pet.ID] = &TrackedPetState{LastNotifiedPosition: copyCoord(pet.Position)}
			events = append(events, MovementEvent{
				Kind:       EventRegistered,
				PetID:      pet.ID,
				PetName:    pet.Name,
				Position:   copyCoord(pet.Position),
				OccurredAt: opts.Now,
			})
			continue
		}

		if ev, ok := detectMove(before, pet, state, opts); ok {
			events = append(events, ev)
		}
	}

	for id := range state {
		if _, ok := curr.Get(id); !ok {
			delete(state, id)
		}
	}
	return events
}

// detectMove handles a pet present on both sides.
func detectMove(before, after PetSnapshot, state StateMap, opts EvaluateOptions) (MovementEvent, bool) {
	if before.Position == nil || after.Position == nil {
		return MovementEvent{}, false
	}

	st, ok := state[after.ID]
	if !ok {
		st = &TrackedPetState{}
		state[after.ID] = st
	}

	from := *before.Position
	if st.LastNotifiedPosition != nil {
		from = *st.LastNotifiedPosition
	}

	distance := geo.Haversine(from, *after.Position)
	if !isSignificant(distance, opts.MinDistanceMeters) || st.Notified {
		return MovementEvent{}, false
	}

	st.LastNotifiedPosition = copyCoord(after.Position)
	st.Notified = true
	return MovementEvent{
		Kind:           EventMoved,
		PetID:          after.ID,
		PetName:        after.Name,
		DistanceMeters: math.Round(distance),
		Position:       copyCoord(after.Position),
		OccurredAt:     opts.Now,
	}, true
}

// isSignificant uses a strict comparison: exactly the threshold is not a move.
func isSignificant(distance, threshold float64) bool {
	return distance > threshold
}

func copyCoord(c *geo.Coordinate) *geo.Coordinate {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
