// Package ingest consumes position fixes reported by tracking chips from
// Kafka and writes them through the pet store, which in turn wakes the
// movement listener.
package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mihuella/pettrack/internal/geo"
	"github.com/mihuella/pettrack/internal/pets"
)

// ChipFix is one message on the chip telemetry topic.
type ChipFix struct {
	PetID      string    `json:"pet_id"`
	OwnerID    string    `json:"owner_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	RecordedAt time.Time `json:"recorded_at"`
}

// DecodeFix parses and validates a message value.
func DecodeFix(value []byte) (pets.Fix, error) {
	var m ChipFix
	if err := json.Unmarshal(value, &m); err != nil {
		return pets.Fix{}, fmt.Errorf("decode chip fix: %w", err)
	}
	petID, err := uuid.Parse(m.PetID)
	if err != nil {
		return pets.Fix{}, fmt.Errorf("chip fix pet_id: %w", err)
	}
	if m.OwnerID == "" {
		return pets.Fix{}, fmt.Errorf("chip fix has no owner_id")
	}
	pos := geo.Coordinate{Latitude: m.Lat, Longitude: m.Lon}
	if err := pos.Validate(); err != nil {
		return pets.Fix{}, fmt.Errorf("chip fix position: %w", err)
	}
	return pets.Fix{
		PetID:      petID,
		OwnerID:    m.OwnerID,
		Position:   pos,
		RecordedAt: m.RecordedAt,
		Source:     pets.SourceChip,
	}, nil
}

// Latest keeps only the newest fix per pet, in first-seen order. A chip that
// reports several times within one batch produces a single location write.
func Latest(fixes []pets.Fix) []pets.Fix {
	idx := make(map[uuid.UUID]int, len(fixes))
	out := make([]pets.Fix, 0, len(fixes))
	for _, f := range fixes {
		i, seen := idx[f.PetID]
		if !seen {
			idx[f.PetID] = len(out)
			out = append(out, f)
			continue
		}
		if !f.RecordedAt.Before(out[i].RecordedAt) {
			out[i] = f
		}
	}
	return out
}
