package api

import (
	"net/http"

	"golang.org/x/time/rate"
)

// retryAfterSeconds is advertised to clients that hit the limit.
const retryAfterSeconds = "1"

// rateLimiter is satisfied by *rate.Limiter; tests substitute fixed answers.
type rateLimiter interface {
	Allow() bool
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) *rate.Limiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
