package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mihuella/pettrack/internal/geo"
	"github.com/mihuella/pettrack/internal/notifications"
	"github.com/mihuella/pettrack/internal/tracking"
)

// simPet is one pet in a replay step. location takes either stored shape.
type simPet struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Location json.RawMessage `json:"location"`
}

// simulate replays snapshot steps through a single tracker and prints every
// event. Returns the number of events.
func simulate(ctx context.Context, r io.Reader, w io.Writer, cfg tracking.TrackerConfig) (int, error) {
	var steps [][]simPet
	if err := json.NewDecoder(r).Decode(&steps); err != nil {
		return 0, fmt.Errorf("decode steps: %w", err)
	}

	t := tracking.NewTracker("simulation", cfg)
	total := 0
	for i, step := range steps {
		set := tracking.NewSnapshotSet()
		for _, p := range step {
			pos, _ := geo.ParsePosition(p.Location)
			set.Add(tracking.PetSnapshot{ID: p.ID, Name: p.Name, Position: pos})
		}

		for _, ev := range t.OnSnapshot(ctx, set) {
			title, body := notifications.BuildMessage(ev)
			fmt.Fprintf(w, "step %d\t%s\t%s\t%s\n", i+1, ev.PetID, title, body)
			total++
		}
	}
	return total, ctx.Err()
}
