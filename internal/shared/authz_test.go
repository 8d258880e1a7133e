package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireUser(t *testing.T) {
	var gotID int64
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		gotID = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("X-User-ID", "42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(42), gotID)

	for _, raw := range []string{"", "abc", "-1", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		if raw != "" {
			req.Header.Set("X-User-ID", raw)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "raw=%q", raw)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := AdminFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "ops@nexcart", admin.Subject)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/orders/NCBD-20250101-0001/verify-payment", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	req.Header.Set("X-Admin-Subject", "ops@nexcart")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/orders/NCBD-20250101-0001/verify-payment", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// An empty configured token never grants access.
	empty := RequireAdmin("")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req = httptest.NewRequest(http.MethodPost, "/admin/orders", nil)
	rec = httptest.NewRecorder()
	empty.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
