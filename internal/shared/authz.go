// Package shared holds cross-cutting request context helpers.
package shared

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/nexcartbd/nexcart/internal/platform/httpx"
)

type contextKey string

const (
	userIDKey contextKey = "nexcart.user_id"
	adminKey  contextKey = "nexcart.admin"
)

// AuthenticatedAdmin is an opaque capability proving the request passed the
// admin gate. Services accept it by value and trust its presence; identity
// validation happens upstream.
type AuthenticatedAdmin struct {
	Subject string
}

// ContextWithUserID stores the authenticated customer id.
func ContextWithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the authenticated customer id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// ContextWithAdmin stores the admin capability.
func ContextWithAdmin(ctx context.Context, admin AuthenticatedAdmin) context.Context {
	return context.WithValue(ctx, adminKey, admin)
}

// AdminFromContext returns the admin capability, if present.
func AdminFromContext(ctx context.Context) (AuthenticatedAdmin, bool) {
	admin, ok := ctx.Value(adminKey).(AuthenticatedAdmin)
	return admin, ok
}

// RequireUser resolves the calling customer from the X-User-ID header set by
// the upstream auth proxy. Token verification itself is outside this service.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid user identity")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), id)))
	})
}

// RequireAdmin grants the AuthenticatedAdmin capability when the request
// carries the configured admin token.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-Admin-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin capability required")
				return
			}
			subject := r.Header.Get("X-Admin-Subject")
			if subject == "" {
				subject = "admin"
			}
			next.ServeHTTP(w, r.WithContext(ContextWithAdmin(r.Context(), AuthenticatedAdmin{Subject: subject})))
		})
	}
}
