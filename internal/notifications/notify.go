// Package notifications turns movement events into user-visible and durable
// notifications.
//
// Pipeline: tracker emits events → build title/body → Dispatcher fans out to
// the local alert sink (Expo push / mail via nikoksr/notify) and the durable
// record sink (Postgres) independently. Both sinks are best-effort and
// at-most-once: no retry queue.
package notifications

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultListLimit = 50
	maxListLimit     = 200
	refreshWorkers   = 4
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// Sink names one of the two dispatch targets.
type Sink string

const (
	SinkLocal   Sink = "local"
	SinkDurable Sink = "durable"
)

var (
	// ErrSinkDisabled is reported when a sink is not configured.
	ErrSinkDisabled = errors.New("sink not configured")
	// ErrNoRecipient is returned by an Alerter that has no way to reach the user.
	ErrNoRecipient = errors.New("no alert recipient for user")
	// ErrNotFound is returned when a notification does not exist for the user.
	ErrNotFound = errors.New("notification not found")
)

// SinkError wraps a failure of one sink.
type SinkError struct {
	Sink Sink
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Record is the durable form of a notification. Created unread; read state
// and deletion are driven by the inbox endpoints.
type Record struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Result reports which sinks accepted a dispatch.
type Result struct {
	Local      bool
	Durable    bool
	LocalErr   error
	DurableErr error
}

// OK is true when both sinks succeeded.
func (r Result) OK() bool { return r.Local && r.Durable }

// Err joins the sink errors, or returns nil if both succeeded.
func (r Result) Err() error {
	return errors.Join(r.LocalErr, r.DurableErr)
}
