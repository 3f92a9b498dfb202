package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 10 * time.Minute
	limiterIdleTTL       = 30 * time.Minute
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// keyedLimiter hands out one token bucket per key and forgets keys that have
// been idle for limiterIdleTTL.
type keyedLimiter[K comparable] struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	entries map[K]*limiterEntry
}

func newKeyedLimiter[K comparable](ctx context.Context, rps float64, burst int) *keyedLimiter[K] {
	kl := &keyedLimiter[K]{
		rps:     rate.Limit(rps),
		burst:   burst,
		entries: make(map[K]*limiterEntry),
	}
	go kl.sweep(ctx)
	return kl
}

func (kl *keyedLimiter[K]) allow(key K) bool {
	kl.mu.Lock()
	e, ok := kl.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(kl.rps, kl.burst)}
		kl.entries[key] = e
	}
	e.lastAccess = time.Now()
	kl.mu.Unlock()

	return e.limiter.Allow()
}

func (kl *keyedLimiter[K]) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-limiterIdleTTL)
			kl.mu.Lock()
			for k, e := range kl.entries {
				if e.lastAccess.Before(cutoff) {
					delete(kl.entries, k)
				}
			}
			kl.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func tooManyRequests(w http.ResponseWriter) {
	writeProblem(w, http.StatusTooManyRequests, "rate limit exceeded")
}

// RateLimitByIP applies per-client rate limiting to unauthenticated routes.
// It keys on r.RemoteAddr, so chi's RealIP must run first. The sweeper stops
// when ctx is done.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	kl := newKeyedLimiter[string](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !kl.allow(r.RemoteAddr) {
				tooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies per-tenant rate limiting. Requests without a tenant pass.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	kl := newKeyedLimiter[uuid.UUID](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := TenantIDFromContext(r.Context())
			if ok && !kl.allow(tenantID) {
				tooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
