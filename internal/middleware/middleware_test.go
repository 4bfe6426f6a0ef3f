package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"uziwear-be/internal/auth"
	"uziwear-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("ValidTokenSetsIdentity", func(t *testing.T) {
		token, err := auth.GenerateJWT("user-1", "customer", "laura@example.com")
		require.NoError(t, err)

		var gotUserID, gotRole string
		handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID, _ = utils.GetUserIDFromContext(r.Context())
			gotRole = utils.GetUserRoleFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "user-1", gotUserID)
		assert.Equal(t, "customer", gotRole)
	})

	t.Run("MissingTokenProceedsAsGuest", func(t *testing.T) {
		var hasIdentity bool
		handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasIdentity = utils.GetUserIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.False(t, hasIdentity)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("GarbageTokenProceedsAsGuest", func(t *testing.T) {
		var hasIdentity bool
		handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasIdentity = utils.GetUserIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.False(t, hasIdentity)
	})
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("AdminPasses", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		ctx := utils.SetUserContext(req.Context(), "admin", "admin@uziwear.co", "admin")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("CustomerForbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		ctx := utils.SetUserContext(req.Context(), "user-1", "laura@example.com", "customer")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("AnonymousForbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("GeneratesWhenMissing", func(t *testing.T) {
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("EchoesIncoming", func(t *testing.T) {
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("StrictTierThrottlesLogin", func(t *testing.T) {
		var last int
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/login", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			last = rec.Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("SeparateIdentitiesSeparateQuotas", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("GeneralTierUnaffectedByStrictExhaustion", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestResolveRateTier(t *testing.T) {
	webhook := httptest.NewRequest(http.MethodPost, "/webhooks/payment", nil)
	_, _, tier := resolveRateTier(webhook)
	assert.Equal(t, "strict", tier)

	products := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	_, _, tier = resolveRateTier(products)
	assert.Equal(t, "general", tier)
}
