package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleEviction  = 10 * time.Minute
)

// RateLimitConfig tunes the per-client token bucket.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained refill rate.
	RequestsPerSecond float64
	// Burst is the bucket size.
	Burst int
}

// RateLimiter enforces a token-bucket limit per client address and
// answers 429 with a Retry-After hint once a client runs dry. Buckets
// idle longer than limiterIdleEviction are swept out so the map does
// not grow with every client ever seen.
func RateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	type bucket struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	var (
		mu      sync.Mutex
		buckets = map[string]*bucket{}
	)

	go func() {
		for range time.Tick(limiterSweepInterval) {
			mu.Lock()
			for addr, b := range buckets {
				if time.Since(b.lastSeen) > limiterIdleEviction {
					delete(buckets, addr)
				}
			}
			mu.Unlock()
		}
	}()

	take := func(addr string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		b, ok := buckets[addr]
		if !ok {
			b = &bucket{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
			buckets[addr] = b
		}
		b.lastSeen = time.Now()
		return b.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := take(clientIP(r))

			res := limiter.Reserve()
			if !res.OK() {
				writeRateLimited(w, 0)
				return
			}
			if delay := res.Delay(); delay > 0 {
				// Over the rate; hand the token back and reject.
				res.Cancel()
				writeRateLimited(w, int(delay.Seconds())+1)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. X-Forwarded-For is ignored
// on purpose: it is client-controlled, and honoring it would let a
// caller dodge the limit by rotating the header.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimited(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    http.StatusTooManyRequests,
		"message": "rate limit exceeded",
	})
}
