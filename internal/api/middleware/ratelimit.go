package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zatekoja/nearbydining/internal/domain/providers"
	"github.com/zatekoja/nearbydining/internal/infrastructure/observability"
)

const rateLimitKeyPrefix = "restaurants:rate:"

// RateLimitStore counts requests per key within fixed windows.
type RateLimitStore interface {
	// Allow reports whether another request for key fits in the current
	// window and, when it does not, how long until the window resets.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration)
}

// CacheRateLimitStore keeps counters in the shared cache so limits hold
// across instances. Cache failures fall back to a per-process counter.
type CacheRateLimitStore struct {
	cache providers.CacheProvider
	local *LocalRateLimitStore
}

// NewCacheRateLimitStore creates a cache-backed rate limit store
func NewCacheRateLimitStore(cache providers.CacheProvider) *CacheRateLimitStore {
	return &CacheRateLimitStore{
		cache: cache,
		local: NewLocalRateLimitStore(),
	}
}

// Allow implements RateLimitStore
func (s *CacheRateLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration) {
	seconds := int(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	count, err := s.cache.Increment(ctx, key, seconds)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("rate limit cache unavailable, using local counter")
		return s.local.Allow(ctx, key, limit, window)
	}
	if count <= int64(limit) {
		return true, 0
	}

	retryAfter, err := s.cache.TTL(ctx, key)
	if err != nil || retryAfter <= 0 {
		retryAfter = window
	}
	return false, retryAfter
}

// LocalRateLimitStore is an in-process fixed window counter.
type LocalRateLimitStore struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

// NewLocalRateLimitStore creates an in-process rate limit store
func NewLocalRateLimitStore() *LocalRateLimitStore {
	return &LocalRateLimitStore{
		states: make(map[string]*localRateState),
	}
}

// Allow implements RateLimitStore
func (l *LocalRateLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter <= 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, 0
}

// Cleanup drops expired windows.
func (l *LocalRateLimitStore) Cleanup() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, state := range l.states {
		if now.After(state.resetAt) {
			delete(l.states, key)
		}
	}
}

// RateLimit rejects clients that exceed limit requests per window with 429.
func RateLimit(store RateLimitStore, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := store.Allow(r.Context(), rateLimitKeyPrefix+clientIP(r), limit, window)
			if !allowed {
				seconds := int(retryAfter.Round(time.Second).Seconds())
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
