package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mihuella/pettrack/internal/api/respond"
	"github.com/mihuella/pettrack/internal/geo"
	"github.com/mihuella/pettrack/internal/pets"
)

// LocationRequest reports a pet position. Both {latitude, longitude} and the
// older {lat, lng} shape are accepted.
type LocationRequest struct {
	geo.RawPosition
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// ListPets returns the caller's pets.
// @Summary List pets
// @Tags pets
// @Produce json
// @Param X-User-ID header string true "User id"
// @Success 200 {array} pets.Pet
// @Failure 401 {object} respond.ErrorResponse
// @Router /pets [get]
func (h *Handler) ListPets(w http.ResponseWriter, r *http.Request) {
	list, err := h.pets.List(r.Context(), UserID(r.Context()))
	if err != nil {
		internalError(w, r, "list pets", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, list)
}

// CreatePet registers a pet for the caller.
// @Summary Register a pet
// @Tags pets
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User id"
// @Param body body pets.NewPet true "Pet profile"
// @Success 201 {object} pets.Pet
// @Failure 400 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /pets [post]
func (h *Handler) CreatePet(w http.ResponseWriter, r *http.Request) {
	var np pets.NewPet
	if !decodeBody(w, r, &np) {
		return
	}
	if err := h.validate.Struct(np); err != nil {
		writeValidation(w, err)
		return
	}

	p, err := h.pets.Create(r.Context(), UserID(r.Context()), np)
	if err != nil {
		internalError(w, r, "create pet", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, p)
}

// ReportLocation stores a new position for a pet. Movement notifications
// follow asynchronously through the change listener.
// @Summary Report a pet location
// @Tags pets
// @Accept json
// @Param X-User-ID header string true "User id"
// @Param petID path string true "Pet id"
// @Param body body LocationRequest true "Position"
// @Success 204
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /pets/{petID}/location [post]
func (h *Handler) ReportLocation(w http.ResponseWriter, r *http.Request) {
	petID, ok := parseUUID(w, chi.URLParam(r, "petID"), "petID")
	if !ok {
		return
	}
	var req LocationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pos, err := req.Resolve()
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_POSITION",
			"Body must carry latitude/longitude (or lat/lng) in range", err.Error())
		return
	}

	fix := pets.Fix{PetID: petID, OwnerID: UserID(r.Context()), Position: pos, Source: pets.SourceApp}
	if req.RecordedAt != nil {
		fix.RecordedAt = req.RecordedAt.UTC()
	}

	if err := h.pets.UpdateLocation(r.Context(), fix); err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Pet not found")
			return
		}
		internalError(w, r, "update location", err)
		return
	}
	respond.WriteNoContent(w)
}

// GetHistory returns recent positions for a pet.
// @Summary Pet location history
// @Tags pets
// @Produce json
// @Param X-User-ID header string true "User id"
// @Param petID path string true "Pet id"
// @Param limit query int false "Max entries (default 100, max 1000)"
// @Success 200 {array} pets.HistoryEntry
// @Failure 400 {object} respond.ErrorResponse
// @Router /pets/{petID}/history [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	petID, ok := parseUUID(w, chi.URLParam(r, "petID"), "petID")
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	entries, err := h.pets.History(r.Context(), UserID(r.Context()), petID, limit)
	if err != nil {
		internalError(w, r, "location history", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, entries)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}
