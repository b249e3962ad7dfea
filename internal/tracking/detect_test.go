package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihuella/pettrack/internal/geo"
)

var (
	testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	zocalo  = geo.Coordinate{Latitude: 19.4326, Longitude: -99.1332}
	// ~556 m north of zocalo.
	bellasArtes = geo.Coordinate{Latitude: 19.4376, Longitude: -99.1332}
)

func at(c geo.Coordinate) *geo.Coordinate { return &c }

func pet(id, name string, pos *geo.Coordinate) PetSnapshot {
	return PetSnapshot{ID: id, Name: name, Position: pos}
}

func opts() EvaluateOptions {
	return EvaluateOptions{MinDistanceMeters: DefaultMinDistanceMeters, Now: testNow}
}

func TestEvaluate_NewPetEmitsRegisteredAndSeedsState(t *testing.T) {
	state := StateMap{}
	curr := NewSnapshotSet(pet("p1", "Firulais", at(zocalo)))

	events := Evaluate(SnapshotSet{}, curr, state, opts())

	require.Len(t, events, 1)
	assert.Equal(t, EventRegistered, events[0].Kind)
	assert.Equal(t, "p1", events[0].PetID)
	assert.Equal(t, "Firulais", events[0].PetName)
	assert.Zero(t, events[0].DistanceMeters)
	assert.Equal(t, testNow, events[0].OccurredAt)

	require.Contains(t, state, "p1")
	assert.Equal(t, zocalo, *state["p1"].LastNotifiedPosition)
	assert.False(t, state["p1"].Notified)
}

func TestEvaluate_NewPetWithoutPositionStillRegistered(t *testing.T) {
	state := StateMap{}
	events := Evaluate(SnapshotSet{}, NewSnapshotSet(pet("p1", "Michi", nil)), state, opts())

	require.Len(t, events, 1)
	assert.Equal(t, EventRegistered, events[0].Kind)
	assert.Nil(t, state["p1"].LastNotifiedPosition)
}

func TestEvaluate_MovedBeyondThreshold(t *testing.T) {
	state := StateMap{}
	prev := NewSnapshotSet(pet("p1", "Firulais", at(zocalo)))
	Evaluate(SnapshotSet{}, prev, state, opts())

	curr := NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes)))
	events := Evaluate(prev, curr, state, opts())

	require.Len(t, events, 1)
	assert.Equal(t, EventMoved, events[0].Kind)
	assert.InDelta(t, 555, events[0].DistanceMeters, 2)
	assert.Equal(t, events[0].DistanceMeters, float64(int(events[0].DistanceMeters)), "distance is rounded")
	assert.Equal(t, bellasArtes, *events[0].Position)
	assert.Equal(t, bellasArtes, *state["p1"].LastNotifiedPosition)
	assert.True(t, state["p1"].Notified)
}

func TestEvaluate_ZeroDistanceNeverEmits(t *testing.T) {
	state := StateMap{}
	set := NewSnapshotSet(pet("p1", "Firulais", at(zocalo)))
	Evaluate(SnapshotSet{}, set, state, opts())

	for i := 0; i < 5; i++ {
		assert.Empty(t, Evaluate(set, set, state, opts()))
	}
}

func TestEvaluate_ThresholdIsStrict(t *testing.T) {
	distance := geo.Haversine(zocalo, bellasArtes)

	tests := []struct {
		name      string
		threshold float64
		wantEvent bool
	}{
		{"distance equals threshold", distance, false},
		{"distance just above threshold", distance - 0.001, true},
		{"distance below threshold", distance + 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := StateMap{"p1": {LastNotifiedPosition: at(zocalo)}}
			prev := NewSnapshotSet(pet("p1", "Firulais", at(zocalo)))
			curr := NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes)))

			events := Evaluate(prev, curr, state, EvaluateOptions{MinDistanceMeters: tt.threshold, Now: testNow})
			assert.Equal(t, tt.wantEvent, len(events) == 1)
		})
	}
}

func TestEvaluate_IdempotentAcrossIdenticalPasses(t *testing.T) {
	// Last notified point lags behind the snapshot: the first identical pass
	// catches up, the second must stay silent.
	state := StateMap{"p1": {LastNotifiedPosition: at(zocalo)}}
	set := NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes)))

	first := Evaluate(set, set, state, opts())
	second := Evaluate(set, set, state, opts())

	assert.Len(t, first, 1)
	assert.Empty(t, second)
}

func TestEvaluate_SmallStepsDoNotAccumulate(t *testing.T) {
	state := StateMap{}
	// 0.0009 deg of latitude is ~100 m.
	positions := []geo.Coordinate{
		zocalo,
		{Latitude: 19.4335, Longitude: -99.1332},
		{Latitude: 19.4344, Longitude: -99.1332},
		{Latitude: 19.4353, Longitude: -99.1332},
	}

	prev := SnapshotSet{}
	var moved []MovementEvent
	for _, p := range positions {
		curr := NewSnapshotSet(pet("p1", "Firulais", at(p)))
		for _, ev := range Evaluate(prev, curr, state, opts()) {
			if ev.Kind == EventMoved {
				moved = append(moved, ev)
			}
		}
		prev = curr
	}

	assert.Empty(t, moved)
	assert.Equal(t, zocalo, *state["p1"].LastNotifiedPosition, "last notified point never moved")
	assert.InDelta(t, 300, geo.Haversine(zocalo, positions[3]), 2)
}

func TestEvaluate_DriftMeasuredFromLastNotifiedPoint(t *testing.T) {
	state := StateMap{}
	steps := []geo.Coordinate{
		zocalo,
		{Latitude: 19.4346, Longitude: -99.1332}, // ~222 m
		{Latitude: 19.4366, Longitude: -99.1332}, // ~445 m
		{Latitude: 19.4376, Longitude: -99.1332}, // ~556 m
	}

	prev := SnapshotSet{}
	var moved []MovementEvent
	for _, p := range steps {
		curr := NewSnapshotSet(pet("p1", "Firulais", at(p)))
		for _, ev := range Evaluate(prev, curr, state, opts()) {
			if ev.Kind == EventMoved {
				moved = append(moved, ev)
			}
		}
		prev = curr
	}

	require.Len(t, moved, 1)
	assert.InDelta(t, 556, moved[0].DistanceMeters, 1)
}

func TestEvaluate_MissingPositionIsNoOp(t *testing.T) {
	state := StateMap{"p1": {LastNotifiedPosition: at(zocalo)}}

	tests := []struct {
		name       string
		prev, curr PetSnapshot
	}{
		{"current missing", pet("p1", "Firulais", at(zocalo)), pet("p1", "Firulais", nil)},
		{"previous missing", pet("p1", "Firulais", nil), pet("p1", "Firulais", at(bellasArtes))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Evaluate(NewSnapshotSet(tt.prev), NewSnapshotSet(tt.curr), state, opts())
			assert.Empty(t, events)
			assert.Equal(t, zocalo, *state["p1"].LastNotifiedPosition)
		})
	}
}

func TestEvaluate_FallsBackToPreviousPositionWhenNeverNotified(t *testing.T) {
	state := StateMap{"p1": {}}
	prev := NewSnapshotSet(pet("p1", "Firulais", at(zocalo)))
	curr := NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes)))

	events := Evaluate(prev, curr, state, opts())

	require.Len(t, events, 1)
	assert.Equal(t, EventMoved, events[0].Kind)
}

func TestEvaluate_OrderFollowsCurrentSet(t *testing.T) {
	state := StateMap{}
	curr := NewSnapshotSet(
		pet("c", "Canela", nil),
		pet("a", "Angus", nil),
		pet("b", "Bruno", nil),
	)

	events := Evaluate(SnapshotSet{}, curr, state, opts())

	require.Len(t, events, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{events[0].PetID, events[1].PetID, events[2].PetID})
}

func TestEvaluate_NotifiedResetEachPass(t *testing.T) {
	state := StateMap{"p1": {LastNotifiedPosition: at(zocalo), Notified: true}}
	prev := NewSnapshotSet(pet("p1", "Firulais", at(zocalo)))
	curr := NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes)))

	events := Evaluate(prev, curr, state, opts())

	assert.Len(t, events, 1, "stale flag from a previous pass must not suppress")
}

func TestEvaluate_RemovedPetDropsState(t *testing.T) {
	state := StateMap{}
	both := NewSnapshotSet(pet("p1", "Firulais", at(zocalo)), pet("p2", "Michi", at(zocalo)))
	Evaluate(SnapshotSet{}, both, state, opts())

	only := NewSnapshotSet(pet("p1", "Firulais", at(zocalo)))
	Evaluate(both, only, state, opts())

	assert.Contains(t, state, "p1")
	assert.NotContains(t, state, "p2")
}

func TestSnapshotSet_AddReplacesKeepingOrder(t *testing.T) {
	s := NewSnapshotSet(pet("a", "A", nil), pet("b", "B", nil))
	s.Add(pet("a", "A2", at(zocalo)))

	pets := s.Pets()
	require.Len(t, pets, 2)
	assert.Equal(t, "A2", pets[0].Name)
	assert.Equal(t, "b", pets[1].ID)
	assert.Equal(t, 2, s.Len())
}
