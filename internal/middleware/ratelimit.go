package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	"recipe-share-backend/internal/apperr"

	"github.com/rs/zerolog/log"
)

// Limiter is the counting backend for rate limiting. Implemented by
// repository.RateLimiter; tests use in-memory fakes.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// RateLimit rejects clients that exceed limit requests per window, keyed by
// client IP within the named scope. When the limiter backend fails the
// request is let through and the failure logged.
func RateLimit(limiter Limiter, scope string, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			allowed, err := limiter.Allow(r.Context(), scope+":"+ip, limit, window)
			if err != nil {
				log.Error().Err(err).Str("scope", scope).Msg("Rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				log.Warn().
					Str("scope", scope).
					Str("ip", ip).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("Rate limit exceeded")
				respondError(w, apperr.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the request's client address. chi's RealIP middleware has
// already rewritten RemoteAddr when forwarding headers are present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
