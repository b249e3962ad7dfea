package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mihuella/pettrack/internal/tracking"
)

// Notifier sends one notification; *Dispatcher implements it.
type Notifier interface {
	Dispatch(ctx context.Context, userID, title, body string) Result
}

// OwnerLister enumerates owners that have at least one pet.
type OwnerLister interface {
	Owners(ctx context.Context) ([]string, error)
}

// EngineConfig configures the per-owner trackers and error reporting.
type EngineConfig struct {
	Tracker tracking.TrackerConfig
	// OnError receives subscription errors. Defaults to logging.
	OnError func(ownerID string, err error)
}

// Engine keeps one tracker per owner, feeds it fresh snapshots and turns the
// resulting events into notifications.
//
// Owners loaded by Prime start from a silent baseline. An owner first seen
// after priming (a new user's first pet) is announced: every pet in its first
// snapshot yields a registered event.
type Engine struct {
	src      tracking.SnapshotSource
	notifier Notifier
	cfg      EngineConfig
	logger   *slog.Logger

	mu       sync.Mutex
	trackers map[string]*tracking.Tracker
	primed   bool
	closed   bool
}

// NewEngine wires a snapshot source to a notifier.
func NewEngine(src tracking.SnapshotSource, notifier Notifier, cfg EngineConfig, logger *slog.Logger) *Engine {
	e := &Engine{
		src:      src,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		trackers: make(map[string]*tracking.Tracker),
	}
	if e.cfg.OnError == nil {
		e.cfg.OnError = func(ownerID string, err error) {
			logger.Warn("snapshot subscription error", "owner_id", ownerID, "error", err)
		}
	}
	return e
}

// Prime seeds a baseline tracker for every existing owner so the first change
// after startup is measured against it instead of becoming it. Owners whose
// snapshot fails to load keep an empty baseline that the next successful
// refresh fills; they are named in the returned error.
func (e *Engine) Prime(ctx context.Context, owners OwnerLister) error {
	ids, err := owners.Owners(ctx)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}
	for _, id := range ids {
		e.tracker(id, true)
	}
	e.mu.Lock()
	e.primed = true
	e.mu.Unlock()

	failed := e.refresh(ctx, ids)
	e.logger.Info("Movement engine primed", "owners", len(ids), "refreshed", len(ids)-len(failed))
	if len(failed) > 0 {
		e.logger.Warn("Movement baseline deferred", "owners", failed)
		return fmt.Errorf("prime %d of %d owners failed: %v", len(failed), len(ids), failed)
	}
	return nil
}

// Run refreshes one owner's snapshot and dispatches the resulting events.
// Returns the number of notifications dispatched. An owner left with no pets
// is forgotten.
func (e *Engine) Run(ctx context.Context, ownerID string) (int, error) {
	t, events, err := e.refreshOwner(ctx, ownerID)
	if err != nil {
		var subErr *tracking.SubscriptionError
		if errors.As(err, &subErr) {
			e.cfg.OnError(ownerID, err)
		}
		return 0, err
	}
	if t.Tracked() == 0 {
		e.forget(ownerID, t)
	}
	if len(events) == 0 {
		return 0, nil
	}

	e.logger.Info("Movement events detected", "owner_id", ownerID, "count", len(events))
	sent := 0
	for _, ev := range events {
		// Teardown abandons whatever has not gone out yet.
		if t.Closed() {
			return sent, tracking.ErrTrackerClosed
		}
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		title, body := BuildMessage(ev)
		res := e.notifier.Dispatch(ctx, ownerID, title, body)
		e.logger.Debug("notification dispatched",
			"owner_id", ownerID, "pet_id", ev.PetID, "kind", ev.Kind,
			"local", res.Local, "durable", res.Durable)
		sent++
	}
	return sent, nil
}

// refreshOwner runs one pass for ownerID. A tracker forgotten by a concurrent
// Run between lookup and refresh is replaced once.
func (e *Engine) refreshOwner(ctx context.Context, ownerID string) (*tracking.Tracker, []tracking.MovementEvent, error) {
	for attempt := 0; ; attempt++ {
		t := e.tracker(ownerID, false)
		if t == nil {
			return nil, nil, tracking.ErrTrackerClosed
		}
		events, err := t.Refresh(ctx, e.src)
		if errors.Is(err, tracking.ErrTrackerClosed) && attempt == 0 && !e.isClosed() {
			continue
		}
		return t, events, err
	}
}

// RefreshAll runs every known owner through a small worker pool. Used by the
// catch-up sweep for changes whose NOTIFY was missed. Returns how many owners
// refreshed without error.
func (e *Engine) RefreshAll(ctx context.Context) int {
	owners := e.Owners()
	failed := e.refresh(ctx, owners)
	return len(owners) - len(failed)
}

// refresh runs owners with at most refreshWorkers in flight and returns the
// ones that failed, sorted.
func (e *Engine) refresh(ctx context.Context, owners []string) []string {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []string
	)
	g.SetLimit(refreshWorkers)
	for _, id := range owners {
		g.Go(func() error {
			if _, err := e.Run(ctx, id); err != nil {
				mu.Lock()
				failed = append(failed, id)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(failed)
	return failed
}

// Forget drops an owner's tracker.
func (e *Engine) Forget(ownerID string) {
	e.forget(ownerID, nil)
}

// forget drops ownerID's tracker, but only if it is still t when t is set.
func (e *Engine) forget(ownerID string, t *tracking.Tracker) {
	e.mu.Lock()
	cur := e.trackers[ownerID]
	if cur == nil || (t != nil && cur != t) {
		e.mu.Unlock()
		return
	}
	delete(e.trackers, ownerID)
	e.mu.Unlock()
	cur.Close()
}

// Owners returns the owners with a live tracker, sorted.
func (e *Engine) Owners() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.trackers))
	for id := range e.trackers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close stops every tracker. In-flight passes are abandoned.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for id, t := range e.trackers {
		t.Close()
		delete(e.trackers, id)
	}
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// tracker returns ownerID's tracker, creating it if needed. A tracker created
// outside Prime after priming announces its first snapshot.
func (e *Engine) tracker(ownerID string, baseline bool) *tracking.Tracker {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	t, ok := e.trackers[ownerID]
	if !ok {
		cfg := e.cfg.Tracker
		if !baseline && e.primed {
			cfg.AnnounceInitial = true
		}
		t = tracking.NewTracker(ownerID, cfg)
		e.trackers[ownerID] = t
	}
	return t
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// BuildMessage renders the title and body for an event.
func BuildMessage(ev tracking.MovementEvent) (title, body string) {
	name := ev.PetName
	if name == "" {
		name = "Your pet"
	}
	switch ev.Kind {
	case tracking.EventRegistered:
		return "Pet registered", fmt.Sprintf("%s is now being tracked.", name)
	default:
		return "Movement detected", fmt.Sprintf("%s moved %s from the last reported spot.", name, formatDistance(ev.DistanceMeters))
	}
}

func formatDistance(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1f km", m/1000)
	}
	return fmt.Sprintf("%d m", int(m))
}
