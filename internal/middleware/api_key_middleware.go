// Package middleware holds the HTTP middleware chain: caller authentication,
// admin authentication and rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"lingo_gateway/internal/auth"
	"lingo_gateway/internal/ratelimit"
	"lingo_gateway/internal/utils"
)

// ContextKey defines the type for context keys to avoid conflicts.
type ContextKey string

// CallerIDKey is the context key for the authenticated caller's key hash.
const CallerIDKey ContextKey = "callerID"

// APIKeyMiddleware validates caller API keys and adds the caller ID to the
// request context.
func APIKeyMiddleware(store *auth.APIKeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				authHeader := r.Header.Get("Authorization")
				if strings.HasPrefix(authHeader, "Bearer ") {
					apiKey = strings.TrimPrefix(authHeader, "Bearer ")
				}
			}

			if apiKey == "" && !store.Open() {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing API key")
				return
			}

			callerID, err := store.Lookup(apiKey)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), CallerIDKey, callerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCallerID retrieves the caller ID from the request context.
func GetCallerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CallerIDKey).(string)
	return id, ok
}

// RateLimitMiddleware rejects requests over the caller's per-minute budget.
func RateLimitMiddleware(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID, ok := GetCallerID(r.Context())
			if !ok {
				callerID = r.RemoteAddr
			}

			allowed, err := limiter.Allow(r.Context(), callerID)
			if err != nil {
				// Limiter errors fail open.
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				utils.RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
