package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter bounds requests per client to limit hits inside a sliding
// window. Stale clients are pruned inline on their own lookups and the whole
// map is swept once per window, so no background goroutine is needed.
type RateLimiter struct {
	mu      sync.Mutex
	hits    map[string][]time.Time
	limit   int
	window  time.Duration
	sweepAt time.Time

	nowFn func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window per
// client key.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		nowFn:  time.Now,
	}
}

// Allow records a request for the key and reports whether it is within the
// limit. The second return value is how long the client should wait before
// retrying; zero when allowed.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFn()
	if now.After(rl.sweepAt) {
		rl.sweepLocked(now)
		rl.sweepAt = now.Add(rl.window)
	}

	recent := pruneTimes(rl.hits[key], now, rl.window)
	if len(recent) >= rl.limit {
		rl.hits[key] = recent
		return false, recent[0].Add(rl.window).Sub(now)
	}
	rl.hits[key] = append(recent, now)
	return true, 0
}

// sweepLocked drops clients with no hits inside the window so the map does
// not grow with client churn.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for key, times := range rl.hits {
		if recent := pruneTimes(times, now, rl.window); len(recent) == 0 {
			delete(rl.hits, key)
		} else {
			rl.hits[key] = recent
		}
	}
}

func pruneTimes(times []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(times) && now.Sub(times[i]) >= window {
		i++
	}
	return times[i:]
}

// clientKey identifies the caller by host, so connections from different
// source ports share one budget.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimitMiddleware rejects requests over the limiter's budget with 429
// and a Retry-After hint.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryIn := limiter.Allow(clientKey(r))
			if !ok {
				secs := int(retryIn / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
