// Package handler provides HTTP handlers for all API endpoints. Handlers
// depend on narrow store interfaces; the Postgres-backed stores are wired in
// cmd/api.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mihuella/pettrack/internal/api/respond"
	"github.com/mihuella/pettrack/internal/chip"
	"github.com/mihuella/pettrack/internal/notifications"
	"github.com/mihuella/pettrack/internal/pets"
)

const maxBodyBytes = 64 << 10

// PetStore is the pet profile and location store.
type PetStore interface {
	List(ctx context.Context, ownerID string) ([]pets.Pet, error)
	Create(ctx context.Context, ownerID string, np pets.NewPet) (pets.Pet, error)
	UpdateLocation(ctx context.Context, fix pets.Fix) error
	History(ctx context.Context, ownerID string, petID uuid.UUID, limit int) ([]pets.HistoryEntry, error)
}

// Inbox is the durable notification store plus the push token registry.
type Inbox interface {
	List(ctx context.Context, userID string, limit int) ([]notifications.Record, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID string, id uuid.UUID) error
	Clear(ctx context.Context, userID string) (int64, error)
	SetPushToken(ctx context.Context, userID, token string) error
}

// ContactCache drops cached contact channels after a change.
type ContactCache interface {
	Invalidate(userID string)
}

// ChipShop is the chip purchase store.
type ChipShop interface {
	Address(ctx context.Context, userID string) (string, error)
	SetAddress(ctx context.Context, userID string, form chip.AddressForm) error
	PlaceOrder(ctx context.Context, userID string, req chip.OrderRequest) (chip.Order, error)
	Orders(ctx context.Context, userID string) ([]chip.Order, error)
}

// HealthChecker pings the database.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StatsReporter exposes cache statistics.
type StatsReporter interface {
	Stats() map[string]interface{}
}

// Deps are the handler dependencies.
type Deps struct {
	Pets     PetStore
	Inbox    Inbox
	Contacts ContactCache
	Chip     ChipShop
	DB       HealthChecker
	Cache    StatsReporter
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pets     PetStore
	inbox    Inbox
	contacts ContactCache
	chip     ChipShop
	db       HealthChecker
	cache    StatsReporter
	validate *validator.Validate
	now      func() time.Time
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	now := func() time.Time { return time.Now().UTC() }
	return &Handler{
		pets:     d.Pets,
		inbox:    d.Inbox,
		contacts: d.Contacts,
		chip:     d.Chip,
		db:       d.DB,
		cache:    d.Cache,
		validate: chip.NewValidator(now), // reports fields by json name
		now:      now,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "PetTrack API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": h.now().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.now().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory contact cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": h.now().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// decodeBody reads a JSON body into v. On failure it writes the error
// response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON", err.Error())
		return false
	}
	return true
}

// writeValidation converts a validator failure into a 422 listing fields.
func writeValidation(w http.ResponseWriter, err error) {
	fields := chip.FieldErrors(err)
	if fields == nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body could not be validated", err.Error())
		return
	}
	respond.WriteValidation(w, fields)
}

func parseUUID(w http.ResponseWriter, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", fmt.Sprintf("%s must be a UUID", what))
		return uuid.UUID{}, false
	}
	return id, true
}

func internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	loggerFrom(r).Error("Request failed", "op", op, "path", r.URL.Path, "error", err)
	respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
}
