package web

import (
	"net/http"
	"sync"
	"time"
)

// rateLimiter is a fixed-window per-IP request counter. Windows are pruned
// lazily on each request, so memory stays proportional to active clients.
type rateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string]*windowCounter
}

type windowCounter struct {
	start time.Time
	count int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCounter),
	}
}

// allow records one request for ip and reports whether it is within limit.
func (rl *rateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.counters[ip]
	if !ok || now.Sub(c.start) >= rl.window {
		// Opportunistic prune of other expired windows
		for k, v := range rl.counters {
			if now.Sub(v.start) >= rl.window {
				delete(rl.counters, k)
			}
		}
		rl.counters[ip] = &windowCounter{start: now, count: 1}
		return true
	}

	c.count++
	return c.count <= rl.limit
}

// middleware enforces the limit, keyed by RemoteAddr as normalized by the
// real-IP middleware upstream.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr, time.Now()) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", "RATE_LIMITED")
			return
		}
		next.ServeHTTP(w, r)
	})
}
