package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTrackerClosed is returned by Refresh after Close.
var ErrTrackerClosed = errors.New("tracker closed")

// SnapshotSource loads the full current pet set for an owner.
type SnapshotSource interface {
	Snapshot(ctx context.Context, ownerID string) (SnapshotSet, error)
}

// SubscriptionError reports that the snapshot source failed for an owner.
// Tracked state is left untouched when it is returned.
type SubscriptionError struct {
	OwnerID string
	Err     error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("snapshot subscription for owner %s: %v", e.OwnerID, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	MinDistanceMeters float64
	// AnnounceInitial emits "registered" events for every pet in the first
	// snapshot. When false the first snapshot only seeds state.
	AnnounceInitial bool
	// Now overrides the clock for tests.
	Now func() time.Time
}

// Tracker owns the detector state for one owner and serializes evaluation
// passes. It is safe for concurrent use.
type Tracker struct {
	ownerID string
	cfg     TrackerConfig

	mu       sync.Mutex
	previous SnapshotSet
	state    StateMap
	started  bool

	closed atomic.Bool
}

// NewTracker creates a tracker for ownerID.
func NewTracker(ownerID string, cfg TrackerConfig) *Tracker {
	if cfg.MinDistanceMeters <= 0 {
		cfg.MinDistanceMeters = DefaultMinDistanceMeters
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Tracker{
		ownerID: ownerID,
		cfg:     cfg,
		state:   make(StateMap),
	}
}

// OwnerID returns the owner this tracker evaluates.
func (t *Tracker) OwnerID() string { return t.ownerID }

// OnSnapshot runs one evaluation pass against the previously seen set.
// A cancelled ctx or a closed tracker abandons the pass without touching
// state and returns nil.
func (t *Tracker) OnSnapshot(ctx context.Context, set SnapshotSet) []MovementEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evaluateLocked(ctx, set)
}

// Refresh loads the owner's current set from src and evaluates it. The load
// happens under the tracker lock so an older snapshot can never be evaluated
// after a newer one.
func (t *Tracker) Refresh(ctx context.Context, src SnapshotSource) ([]MovementEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Load() {
		return nil, ErrTrackerClosed
	}
	set, err := src.Snapshot(ctx, t.ownerID)
	if err != nil {
		return nil, &SubscriptionError{OwnerID: t.ownerID, Err: err}
	}
	// Closed while loading: drop the snapshot.
	if t.closed.Load() {
		return nil, ErrTrackerClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.evaluateLocked(ctx, set), nil
}

func (t *Tracker) evaluateLocked(ctx context.Context, set SnapshotSet) []MovementEvent {
	if t.closed.Load() || ctx.Err() != nil {
		return nil
	}

	prev := t.previous
	if !t.started && !t.cfg.AnnounceInitial {
		// Baseline: everything in the first set is already known.
		prev = set
		for _, p := range set.Pets() {
			t.state[p.ID] = &TrackedPetState{LastNotifiedPosition: copyCoord(p.Position)}
		}
	}

	events := Evaluate(prev, set, t.state, EvaluateOptions{
		MinDistanceMeters: t.cfg.MinDistanceMeters,
		Now:               t.cfg.Now(),
	})
	t.previous = set
	t.started = true
	return events
}

// Close stops the tracker without waiting for a pass in progress. That pass,
// and any waiting on the lock, is abandoned before it touches state.
func (t *Tracker) Close() {
	t.closed.Store(true)
}

// Closed reports whether Close has been called.
func (t *Tracker) Closed() bool {
	return t.closed.Load()
}

// Tracked returns how many pets the last evaluated snapshot held.
func (t *Tracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.previous.Len()
}

// State returns a copy of the tracked state for pet id.
func (t *Tracker) State(id string) (TrackedPetState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.state[id]
	if !ok {
		return TrackedPetState{}, false
	}
	return TrackedPetState{
		LastNotifiedPosition: copyCoord(st.LastNotifiedPosition),
		Notified:             st.Notified,
	}, true
}
