package core

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitResult is the outcome of a limiter check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimitStore abstracts the counter backend for the request limiter.
// The in-memory implementation below serves a single process; a shared
// store (Redis, Postgres) can replace it without touching the middleware.
type RateLimitStore interface {
	// IncrementAndCheck atomically increments the counter for key and
	// reports whether the request is within limit for the window.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (RateLimitResult, error)
}

// RateLimit enforces a fixed-window request limit per client IP.
//
// On every request (allowed or not), the middleware sets standard rate limit
// response headers:
//   - X-RateLimit-Limit: maximum number of requests in the window.
//   - X-RateLimit-Remaining: requests remaining.
//   - X-RateLimit-Reset: Unix timestamp when the window resets.
//
// When rate limited, it also sets Retry-After and responds 429.
// If no RateLimitStore is configured (tests), the middleware passes through.
func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.RateLimitStore == nil {
			next.ServeHTTP(w, r)
			return
		}

		limit := s.Config.RateLimit.Max
		window := s.Config.RateLimit.Window

		result, err := s.RateLimitStore.IncrementAndCheck(r.Context(), clientIP(r), limit, window)
		if err != nil {
			// Fail open: a limiter failure must not take the API down.
			s.Logger.Warn("rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(time.Until(result.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":"rate_limit_exceeded","message":"too many requests"}}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address for rate limit keying, without the
// ephemeral port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// windowCounter is a single fixed-window counter.
type windowCounter struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimitStore is an in-memory fixed-window RateLimitStore.
// Expired windows are dropped lazily on access and swept opportunistically
// when the map grows.
type MemoryRateLimitStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	clock    func() time.Time
}

// NewMemoryRateLimitStore creates an empty in-memory limiter store.
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		counters: make(map[string]*windowCounter),
		clock:    time.Now,
	}
}

// sweepThreshold is the map size beyond which expired entries are swept.
const sweepThreshold = 10000

// IncrementAndCheck implements RateLimitStore.
func (m *MemoryRateLimitStore) IncrementAndCheck(_ context.Context, key string, limit int, window time.Duration) (RateLimitResult, error) {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok || now.After(c.resetAt) {
		c = &windowCounter{resetAt: now.Add(window)}
		m.counters[key] = c
	}
	c.count++

	if len(m.counters) > sweepThreshold {
		for k, v := range m.counters {
			if now.After(v.resetAt) {
				delete(m.counters, k)
			}
		}
	}

	remaining := limit - c.count
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitResult{
		Allowed:   c.count <= limit,
		Remaining: remaining,
		ResetAt:   c.resetAt,
	}, nil
}
