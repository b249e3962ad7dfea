package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihuella/pettrack/internal/geo"
	"github.com/mihuella/pettrack/internal/tracking"
)

type mapSource struct {
	mu      sync.Mutex
	sets    map[string]tracking.SnapshotSet
	err     error
	failFor map[string]error
}

func (m *mapSource) Snapshot(_ context.Context, ownerID string) (tracking.SnapshotSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return tracking.SnapshotSet{}, m.err
	}
	if err := m.failFor[ownerID]; err != nil {
		return tracking.SnapshotSet{}, err
	}
	return m.sets[ownerID], nil
}

func (m *mapSource) put(ownerID string, pets ...tracking.PetSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[ownerID] = tracking.NewSnapshotSet(pets...)
}

func (m *mapSource) Owners(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.sets {
		ids = append(ids, id)
	}
	return ids, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []string
	onSend func()
}

func (r *recordingNotifier) Dispatch(_ context.Context, userID, title, body string) Result {
	r.mu.Lock()
	r.sent = append(r.sent, userID+"|"+title+"|"+body)
	onSend := r.onSend
	r.mu.Unlock()
	if onSend != nil {
		onSend()
	}
	return Result{Local: true, Durable: true}
}

func coord(lat, lon float64) *geo.Coordinate {
	return &geo.Coordinate{Latitude: lat, Longitude: lon}
}

func TestEngine_PrimeThenMovement(t *testing.T) {
	src := &mapSource{sets: map[string]tracking.SnapshotSet{}}
	src.put("owner-1", tracking.PetSnapshot{ID: "p1", Name: "Firulais", Position: coord(19.4326, -99.1332)})
	n := &recordingNotifier{}
	e := NewEngine(src, n, EngineConfig{}, discardLogger())
	ctx := context.Background()

	require.NoError(t, e.Prime(ctx, src))
	assert.Equal(t, []string{"owner-1"}, e.Owners())
	assert.Empty(t, n.sent)

	src.put("owner-1", tracking.PetSnapshot{ID: "p1", Name: "Firulais", Position: coord(19.4376, -99.1332)})
	count, err := e.Run(ctx, "owner-1")

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "owner-1|Movement detected|Firulais moved 556 m from the last reported spot.", n.sent[0])

	// Redundant delivery of the same snapshot.
	count, err = e.Run(ctx, "owner-1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Len(t, n.sent, 1)
}

func TestEngine_NewPetRegistered(t *testing.T) {
	src := &mapSource{sets: map[string]tracking.SnapshotSet{}}
	src.put("owner-1", tracking.PetSnapshot{ID: "p1", Name: "Firulais"})
	n := &recordingNotifier{}
	e := NewEngine(src, n, EngineConfig{}, discardLogger())
	ctx := context.Background()
	require.NoError(t, e.Prime(ctx, src))

	src.put("owner-1",
		tracking.PetSnapshot{ID: "p1", Name: "Firulais"},
		tracking.PetSnapshot{ID: "p2", Name: "Michi"},
	)
	count, err := e.Run(ctx, "owner-1")

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"owner-1|Pet registered|Michi is now being tracked."}, n.sent)
}

func TestEngine_NewOwnerFirstPetRegistered(t *testing.T) {
	src := &mapSource{sets: map[string]tracking.SnapshotSet{}}
	n := &recordingNotifier{}
	e := NewEngine(src, n, EngineConfig{}, discardLogger())
	ctx := context.Background()
	require.NoError(t, e.Prime(ctx, src))

	src.put("new-owner", tracking.PetSnapshot{ID: "p1", Name: "Firulais", Position: coord(19.4326, -99.1332)})
	count, err := e.Run(ctx, "new-owner")

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"new-owner|Pet registered|Firulais is now being tracked."}, n.sent)

	// Same set again: nothing new.
	count, err = e.Run(ctx, "new-owner")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngine_ForgetsOwnerWithoutPets(t *testing.T) {
	src := &mapSource{sets: map[string]tracking.SnapshotSet{}}
	src.put("owner-1", tracking.PetSnapshot{ID: "p1", Name: "Firulais", Position: coord(19.4326, -99.1332)})
	n := &recordingNotifier{}
	e := NewEngine(src, n, EngineConfig{}, discardLogger())
	ctx := context.Background()
	require.NoError(t, e.Prime(ctx, src))

	src.put("owner-1")
	_, err := e.Run(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, e.Owners())

	// A pet added later is announced by a fresh tracker.
	src.put("owner-1", tracking.PetSnapshot{ID: "p2", Name: "Michi"})
	count, err := e.Run(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"owner-1|Pet registered|Michi is now being tracked."}, n.sent)
}

func TestEngine_PrimeReportsFailedOwners(t *testing.T) {
	src := &mapSource{
		sets:    map[string]tracking.SnapshotSet{},
		failFor: map[string]error{"owner-2": errors.New("statement timeout")},
	}
	src.put("owner-1", tracking.PetSnapshot{ID: "p1", Position: coord(0, 0)})
	src.put("owner-2", tracking.PetSnapshot{ID: "p2", Position: coord(0, 0)})
	n := &recordingNotifier{}
	e := NewEngine(src, n, EngineConfig{}, discardLogger())
	ctx := context.Background()

	err := e.Prime(ctx, src)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner-2")
	assert.NotContains(t, err.Error(), "owner-1")
	assert.Equal(t, []string{"owner-1", "owner-2"}, e.Owners())

	// The failed owner still baselines silently once its snapshot loads.
	delete(src.failFor, "owner-2")
	count, err := e.Run(ctx, "owner-2")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, n.sent)
}

func TestEngine_CloseStopsPendingDispatches(t *testing.T) {
	src := &mapSource{sets: map[string]tracking.SnapshotSet{}}
	n := &recordingNotifier{}
	e := NewEngine(src, n, EngineConfig{}, discardLogger())
	ctx := context.Background()
	require.NoError(t, e.Prime(ctx, src))
	n.onSend = e.Close

	src.put("owner-1",
		tracking.PetSnapshot{ID: "p1", Name: "Firulais"},
		tracking.PetSnapshot{ID: "p2", Name: "Michi"},
	)
	count, err := e.Run(ctx, "owner-1")

	assert.ErrorIs(t, err, tracking.ErrTrackerClosed)
	assert.Equal(t, 1, count)
	assert.Len(t, n.sent, 1)
}

func TestEngine_SubscriptionErrorSurfaced(t *testing.T) {
	boom := errors.New("listen connection lost")
	src := &mapSource{sets: map[string]tracking.SnapshotSet{}, err: boom}

	var gotOwner string
	var gotErr error
	e := NewEngine(src, &recordingNotifier{}, EngineConfig{
		OnError: func(ownerID string, err error) { gotOwner, gotErr = ownerID, err },
	}, discardLogger())

	_, err := e.Run(context.Background(), "owner-1")

	require.Error(t, err)
	assert.Equal(t, "owner-1", gotOwner)
	assert.ErrorIs(t, gotErr, boom)
}

func TestEngine_RefreshAllAndClose(t *testing.T) {
	src := &mapSource{sets: map[string]tracking.SnapshotSet{}}
	for _, id := range []string{"a", "b", "c"} {
		src.put(id, tracking.PetSnapshot{ID: id + "-pet", Position: coord(0, 0)})
	}
	e := NewEngine(src, &recordingNotifier{}, EngineConfig{}, discardLogger())
	ctx := context.Background()
	require.NoError(t, e.Prime(ctx, src))

	assert.Equal(t, 3, e.RefreshAll(ctx))

	e.Forget("b")
	assert.Equal(t, []string{"a", "c"}, e.Owners())

	e.Close()
	assert.Empty(t, e.Owners())
	_, err := e.Run(ctx, "a")
	assert.ErrorIs(t, err, tracking.ErrTrackerClosed)
}

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		name      string
		ev        tracking.MovementEvent
		wantTitle string
		wantBody  string
	}{
		{
			name:      "moved metres",
			ev:        tracking.MovementEvent{Kind: tracking.EventMoved, PetName: "Firulais", DistanceMeters: 612},
			wantTitle: "Movement detected",
			wantBody:  "Firulais moved 612 m from the last reported spot.",
		},
		{
			name:      "moved kilometres",
			ev:        tracking.MovementEvent{Kind: tracking.EventMoved, PetName: "Firulais", DistanceMeters: 2460},
			wantTitle: "Movement detected",
			wantBody:  "Firulais moved 2.5 km from the last reported spot.",
		},
		{
			name:      "unnamed registered",
			ev:        tracking.MovementEvent{Kind: tracking.EventRegistered},
			wantTitle: "Pet registered",
			wantBody:  "Your pet is now being tracked.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := BuildMessage(tt.ev)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
