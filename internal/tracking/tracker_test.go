package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	sets  map[string]SnapshotSet
	err   error
	calls int
}

func (f *fakeSource) Snapshot(_ context.Context, ownerID string) (SnapshotSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return SnapshotSet{}, f.err
	}
	return f.sets[ownerID], nil
}

func (f *fakeSource) set(ownerID string, s SnapshotSet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[ownerID] = s
}

func newTestTracker(announce bool) *Tracker {
	return NewTracker("owner-1", TrackerConfig{
		AnnounceInitial: announce,
		Now:             func() time.Time { return testNow },
	})
}

func TestTracker_FirstSnapshotSeedsSilently(t *testing.T) {
	tr := newTestTracker(false)
	ctx := context.Background()

	events := tr.OnSnapshot(ctx, NewSnapshotSet(pet("p1", "Firulais", at(zocalo))))
	assert.Empty(t, events)

	st, ok := tr.State("p1")
	require.True(t, ok)
	assert.Equal(t, zocalo, *st.LastNotifiedPosition)

	events = tr.OnSnapshot(ctx, NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes))))
	require.Len(t, events, 1)
	assert.Equal(t, EventMoved, events[0].Kind)
}

func TestTracker_AnnounceInitial(t *testing.T) {
	tr := newTestTracker(true)

	events := tr.OnSnapshot(context.Background(), NewSnapshotSet(
		pet("p1", "Firulais", at(zocalo)),
		pet("p2", "Michi", nil),
	))

	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, EventRegistered, ev.Kind)
	}
}

func TestTracker_PetAddedLaterIsRegistered(t *testing.T) {
	tr := newTestTracker(false)
	ctx := context.Background()
	tr.OnSnapshot(ctx, NewSnapshotSet(pet("p1", "Firulais", at(zocalo))))

	events := tr.OnSnapshot(ctx, NewSnapshotSet(
		pet("p1", "Firulais", at(zocalo)),
		pet("p2", "Michi", at(bellasArtes)),
	))

	require.Len(t, events, 1)
	assert.Equal(t, EventRegistered, events[0].Kind)
	assert.Equal(t, "p2", events[0].PetID)
}

func TestTracker_ConcurrentSnapshotsEmitOnce(t *testing.T) {
	tr := newTestTracker(false)
	ctx := context.Background()
	tr.OnSnapshot(ctx, NewSnapshotSet(pet("p1", "Firulais", at(zocalo))))

	moved := NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes)))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := len(tr.OnSnapshot(ctx, moved))
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, total)
	st, _ := tr.State("p1")
	assert.Equal(t, bellasArtes, *st.LastNotifiedPosition)
}

func TestTracker_CancelledContextAbandonsPass(t *testing.T) {
	tr := newTestTracker(false)
	tr.OnSnapshot(context.Background(), NewSnapshotSet(pet("p1", "Firulais", at(zocalo))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := tr.OnSnapshot(ctx, NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes))))
	assert.Nil(t, events)

	st, _ := tr.State("p1")
	assert.Equal(t, zocalo, *st.LastNotifiedPosition)
}

func TestTracker_ClosedIgnoresSnapshots(t *testing.T) {
	tr := newTestTracker(false)
	ctx := context.Background()
	tr.OnSnapshot(ctx, NewSnapshotSet(pet("p1", "Firulais", at(zocalo))))
	tr.Close()

	assert.Nil(t, tr.OnSnapshot(ctx, NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes)))))

	_, err := tr.Refresh(ctx, &fakeSource{sets: map[string]SnapshotSet{}})
	assert.ErrorIs(t, err, ErrTrackerClosed)

	st, _ := tr.State("p1")
	assert.Equal(t, zocalo, *st.LastNotifiedPosition)
}

func TestTracker_RefreshLoadsFromSource(t *testing.T) {
	tr := newTestTracker(false)
	src := &fakeSource{sets: map[string]SnapshotSet{}}
	ctx := context.Background()

	src.set("owner-1", NewSnapshotSet(pet("p1", "Firulais", at(zocalo))))
	events, err := tr.Refresh(ctx, src)
	require.NoError(t, err)
	assert.Empty(t, events)

	src.set("owner-1", NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes))))
	events, err = tr.Refresh(ctx, src)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 2, src.calls)
}

func TestTracker_RefreshSourceErrorKeepsState(t *testing.T) {
	tr := newTestTracker(false)
	ctx := context.Background()
	tr.OnSnapshot(ctx, NewSnapshotSet(pet("p1", "Firulais", at(zocalo))))

	boom := errors.New("connection reset")
	_, err := tr.Refresh(ctx, &fakeSource{err: boom})

	var subErr *SubscriptionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "owner-1", subErr.OwnerID)
	assert.ErrorIs(t, err, boom)

	st, ok := tr.State("p1")
	require.True(t, ok)
	assert.Equal(t, zocalo, *st.LastNotifiedPosition)
}

type blockingSource struct {
	entered chan struct{}
	release chan struct{}
	set     SnapshotSet
}

func (b *blockingSource) Snapshot(_ context.Context, _ string) (SnapshotSet, error) {
	close(b.entered)
	<-b.release
	return b.set, nil
}

func TestTracker_CloseDuringLoadAbandonsPass(t *testing.T) {
	tr := newTestTracker(false)
	ctx := context.Background()
	tr.OnSnapshot(ctx, NewSnapshotSet(pet("p1", "Firulais", at(zocalo))))

	src := &blockingSource{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		set:     NewSnapshotSet(pet("p1", "Firulais", at(bellasArtes))),
	}
	type result struct {
		events []MovementEvent
		err    error
	}
	done := make(chan result, 1)
	go func() {
		events, err := tr.Refresh(ctx, src)
		done <- result{events, err}
	}()

	<-src.entered
	tr.Close()
	assert.True(t, tr.Closed())
	close(src.release)

	res := <-done
	assert.ErrorIs(t, res.err, ErrTrackerClosed)
	assert.Empty(t, res.events)

	st, _ := tr.State("p1")
	assert.Equal(t, zocalo, *st.LastNotifiedPosition)
}

func TestTracker_Tracked(t *testing.T) {
	tr := newTestTracker(false)
	assert.Zero(t, tr.Tracked())

	tr.OnSnapshot(context.Background(), NewSnapshotSet(pet("p1", "Firulais", at(zocalo)), pet("p2", "Michi", nil)))
	assert.Equal(t, 2, tr.Tracked())

	tr.OnSnapshot(context.Background(), NewSnapshotSet())
	assert.Zero(t, tr.Tracked())
}
