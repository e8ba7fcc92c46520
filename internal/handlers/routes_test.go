package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eldergrove/eldergrove-server/internal/config"
	"github.com/eldergrove/eldergrove-server/internal/middleware"
	"github.com/eldergrove/eldergrove-server/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	h := &HandlerManager{
		Config:  &config.Config{JWTSecret: "test_secret_key_with_enough_length_32"},
		Limiter: middleware.NewRateLimiter(1000, 1000, time.Minute),
	}
	return h.Routes()
}

func TestRoutes_HealthOpen(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoutes_APIRequiresToken(t *testing.T) {
	router := newTestRouter()

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/profile"},
		{http.MethodPost, "/api/profile/daily-reward"},
		{http.MethodGet, "/api/profile/transactions"},
		{http.MethodPost, "/api/covens"},
		{http.MethodGet, "/api/covens/mine"},
		{http.MethodPost, "/api/productions"},
		{http.MethodGet, "/api/ads/eligibility"},
		{http.MethodPost, "/api/ads/energy"},
	}

	for _, tt := range protected {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
		})
	}
}

func TestRoutes_GarbageTokenRejected(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer not.a.real.token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_PlayerRateLimitEnforced(t *testing.T) {
	h := &HandlerManager{
		Config:  &config.Config{JWTSecret: "test_secret_key_with_enough_length_32"},
		Limiter: middleware.NewRateLimiter(1, 1000, time.Minute),
	}
	router := h.Routes()

	token, err := security.GenerateJWT(7, "p7cccccc", h.Config.JWTSecret)
	require.NoError(t, err)

	// same player from rotating addresses; the per-player quota of one
	// must hold regardless of the source IP
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/covens/search", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.RemoteAddr = fmt.Sprintf("10.0.0.%d:51234", i+1)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusBadRequest, codes[0], "first request reaches the handler and fails validation")
	assert.Equal(t, []int{http.StatusTooManyRequests, http.StatusTooManyRequests}, codes[1:])
}

func TestRoutes_AuthEndpointsOpen(t *testing.T) {
	router := newTestRouter()

	// no token needed; an empty body fails validation, not authentication
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
