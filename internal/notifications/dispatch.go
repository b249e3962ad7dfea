package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Alerter delivers an ephemeral alert to the user right now. There is no
// delivery guarantee beyond the returned initiation error.
type Alerter interface {
	Alert(ctx context.Context, userID, title, body string) error
}

// RecordStore appends durable notification records.
type RecordStore interface {
	Append(ctx context.Context, rec Record) error
}

// Dispatcher sends one notification through both sinks. A failing sink never
// blocks or rolls back the other, and nothing is retried.
type Dispatcher struct {
	alerter Alerter
	records RecordStore
	logger  *slog.Logger
	now     func() time.Time
	newID   func() uuid.UUID
}

// NewDispatcher wires the two sinks. Either may be nil, in which case that
// side reports ErrSinkDisabled.
func NewDispatcher(alerter Alerter, records RecordStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		alerter: alerter,
		records: records,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.New,
	}
}

// Dispatch attempts the local alert and the durable append concurrently and
// reports which succeeded. Errors are logged, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, title, body string) Result {
	var (
		res Result
		g   errgroup.Group
	)

	g.Go(func() error {
		res.LocalErr = d.sendLocal(ctx, userID, title, body)
		res.Local = res.LocalErr == nil
		return nil
	})

	g.Go(func() error {
		res.DurableErr = d.appendRecord(ctx, userID, title, body)
		res.Durable = res.DurableErr == nil
		return nil
	})

	_ = g.Wait()

	if !res.OK() {
		d.logger.Warn("notification partially delivered",
			"user_id", userID, "local", res.Local, "durable", res.Durable)
	}
	return res
}

func (d *Dispatcher) sendLocal(ctx context.Context, userID, title, body string) error {
	if d.alerter == nil {
		return &SinkError{Sink: SinkLocal, Err: ErrSinkDisabled}
	}
	if err := d.alerter.Alert(ctx, userID, title, body); err != nil {
		d.logger.Warn("local alert failed", "user_id", userID, "error", err)
		return &SinkError{Sink: SinkLocal, Err: err}
	}
	return nil
}

func (d *Dispatcher) appendRecord(ctx context.Context, userID, title, body string) error {
	if d.records == nil {
		return &SinkError{Sink: SinkDurable, Err: ErrSinkDisabled}
	}
	rec := Record{
		ID:        d.newID(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: d.now(),
		Read:      false,
	}
	if err := d.records.Append(ctx, rec); err != nil {
		d.logger.Warn("notification record append failed", "user_id", userID, "error", err)
		return &SinkError{Sink: SinkDurable, Err: err}
	}
	return nil
}
