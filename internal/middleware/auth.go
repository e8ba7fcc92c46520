package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/eldergrove/eldergrove-server/internal/security"
)

type contextKey string

const claimsKey contextKey = "playerClaims"

// Authenticate validates the bearer token and stores the claims on the
// request context. Requests without a valid token are rejected with 401.
func Authenticate(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(w)
			return
		}

		claims, err := security.ValidateJWT(token, secret)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFrom returns the authenticated player's claims, or nil on an
// unauthenticated request.
func ClaimsFrom(ctx context.Context) *security.Claims {
	claims, _ := ctx.Value(claimsKey).(*security.Claims)
	return claims
}

// RateLimitIP rejects requests over the per-IP limit. It wraps the whole
// tree, before authentication.
func RateLimitIP(limiter *RateLimiter, trustProxy bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.CheckIPLimit(clientIP(r, trustProxy)) {
			tooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitPlayer rejects requests over the per-player limit. It must sit
// inside Authenticate so the claims are already on the context.
func RateLimitPlayer(limiter *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := ClaimsFrom(r.Context()); claims != nil {
			if !limiter.CheckPlayerLimit(claims.PlayerID) {
				tooManyRequests(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request, trustProxy bool) string {
	// X-Forwarded-For is spoofable; honor it only when a trusted proxy
	// sets it, otherwise take the first hop of the connection itself.
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if ip, _, ok := strings.Cut(fwd, ","); ok {
				return strings.TrimSpace(ip)
			}
			return strings.TrimSpace(fwd)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"a valid bearer token is required"}}`))
}

func tooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":{"code":"RATE_LIMIT_EXCEEDED","message":"too many requests, slow down"}}`))
}
