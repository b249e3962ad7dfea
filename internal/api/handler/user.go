package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mihuella/pettrack/internal/api/respond"
)

// UserHeader carries the authenticated user id, set by the gateway in front
// of the service.
const UserHeader = "X-User-ID"

type userKey struct{}

// RequireUser rejects requests without a user id and stores it on the
// request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(UserHeader))
		if id == "" {
			respond.WriteError(w, http.StatusUnauthorized, "MISSING_USER", UserHeader+" header is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, id)))
	})
}

// UserID returns the id stored by RequireUser.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

func loggerFrom(r *http.Request) *slog.Logger {
	return slog.Default().With("request_id", middleware.GetReqID(r.Context()))
}
