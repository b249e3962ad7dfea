package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mihuella/pettrack/internal/api/respond"
	"github.com/mihuella/pettrack/internal/notifications"
)

// PushTokenRequest registers the device's Expo push token.
type PushTokenRequest struct {
	Token string `json:"token" validate:"required,max=200"`
}

// ListNotifications returns the caller's inbox, newest first.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param X-User-ID header string true "User id"
// @Param limit query int false "Max entries (default 50, max 200)"
// @Success 200 {array} notifications.Record
// @Router /notifications [get]
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	recs, err := h.inbox.List(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		internalError(w, r, "list notifications", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, recs)
}

// UnreadCount returns how many notifications are unread.
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Param X-User-ID header string true "User id"
// @Success 200 {object} map[string]int
// @Router /notifications/unread-count [get]
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.inbox.UnreadCount(r.Context(), UserID(r.Context()))
	if err != nil {
		internalError(w, r, "unread count", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]int{"unread": n})
}

// MarkRead marks one notification read.
// @Summary Mark a notification read
// @Tags notifications
// @Param X-User-ID header string true "User id"
// @Param id path string true "Notification id"
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), "id")
	if !ok {
		return
	}
	if err := h.inbox.MarkRead(r.Context(), UserID(r.Context()), id); err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Notification not found")
			return
		}
		internalError(w, r, "mark read", err)
		return
	}
	respond.WriteNoContent(w)
}

// ClearNotifications deletes the caller's whole inbox.
// @Summary Clear notifications
// @Tags notifications
// @Produce json
// @Param X-User-ID header string true "User id"
// @Success 200 {object} map[string]int64
// @Router /notifications [delete]
func (h *Handler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := h.inbox.Clear(r.Context(), UserID(r.Context()))
	if err != nil {
		internalError(w, r, "clear notifications", err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]int64{"deleted": n})
}

// SetPushToken registers the device push token used for local alerts.
// @Summary Register push token
// @Tags devices
// @Accept json
// @Param X-User-ID header string true "User id"
// @Param body body PushTokenRequest true "Expo push token"
// @Success 204
// @Failure 422 {object} respond.ErrorResponse
// @Router /devices/push-token [put]
func (h *Handler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	var req PushTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if err := h.validate.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}
	if !notifications.IsExpoPushToken(req.Token) {
		respond.WriteValidation(w, map[string]string{"token": "is not an Expo push token"})
		return
	}

	userID := UserID(r.Context())
	if err := h.inbox.SetPushToken(r.Context(), userID, req.Token); err != nil {
		internalError(w, r, "set push token", err)
		return
	}
	if h.contacts != nil {
		h.contacts.Invalidate(userID)
	}
	respond.WriteNoContent(w)
}
