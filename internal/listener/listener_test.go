package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	owners []string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, ownerID string) (int, error) {
	f.owners = append(f.owners, ownerID)
	return 1, f.err
}

func TestParseChange(t *testing.T) {
	ev, err := ParseChange(`{"owner_id":"user-7","pet_id":"0b6f5c1e-8f0e-4c53-9c39-1f1d7c1e0a11","op":"UPDATE"}`)

	require.NoError(t, err)
	assert.Equal(t, ChangeEvent{OwnerID: "user-7", PetID: "0b6f5c1e-8f0e-4c53-9c39-1f1d7c1e0a11", Op: "UPDATE"}, ev)
}

func TestParseChange_Rejects(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":    "owner changed",
		"no owner id": `{"pet_id":"p1","op":"DELETE"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseChange(payload)
			assert.Error(t, err)
		})
	}
}

func TestHandleChange_RunsOwner(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := &fakeRunner{}

	HandleChange(context.Background(), r, ChangeEvent{OwnerID: "user-7", Op: "INSERT"}, logger)
	r.err = errors.New("snapshot failed")
	HandleChange(context.Background(), r, ChangeEvent{OwnerID: "user-8", Op: "UPDATE"}, logger)

	assert.Equal(t, []string{"user-7", "user-8"}, r.owners)
}
