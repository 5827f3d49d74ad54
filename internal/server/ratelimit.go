package server

import (
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/juju/ratelimit"
)

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	rate     float64
	capacity int64

	mu      sync.RWMutex
	clients map[string]*ratelimit.Bucket
}

// NewRateLimiter creates a limiter refilling rate tokens per second up to
// capacity. A non-positive rate returns nil, which disables limiting.
func NewRateLimiter(rate float64, capacity int64) *RateLimiter {
	if rate <= 0 {
		return nil
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &RateLimiter{
		rate:     rate,
		capacity: capacity,
		clients:  make(map[string]*ratelimit.Bucket),
	}
}

func (rl *RateLimiter) bucket(client string) *ratelimit.Bucket {
	rl.mu.RLock()
	b, ok := rl.clients[client]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok = rl.clients[client]; !ok {
		b = ratelimit.NewBucketWithRate(rl.rate, rl.capacity)
		rl.clients[client] = b
		rateLimiterBuckets.Set(float64(len(rl.clients)))
	}
	return b
}

// Allow takes one token for client and reports whether one was available.
func (rl *RateLimiter) Allow(client string) bool {
	if rl == nil {
		return true
	}
	return rl.bucket(client).TakeAvailable(1) == 1
}

// Sweep drops buckets that have refilled completely and returns how many
// were removed.
func (rl *RateLimiter) Sweep() int {
	if rl == nil {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for client, b := range rl.clients {
		if b.Available() == b.Capacity() {
			delete(rl.clients, client)
			removed++
		}
	}
	rateLimiterBuckets.Set(float64(len(rl.clients)))
	return removed
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	if rl == nil {
		return 0
	}
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.clients)
}

// Middleware rejects requests with 429 once a client's bucket is empty.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl == nil {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rl.capacity, 10))
		if !rl.Allow(clientHost(r.RemoteAddr)) {
			rateLimitedTotal.Inc()
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientHost strips the port from a remote address so every connection from
// one host shares a bucket.
func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" {
		return remoteAddr
	}
	return host
}
