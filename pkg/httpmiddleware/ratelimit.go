package httpmiddleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client token bucket rate limiter.
type RateLimitConfig struct {
	// Max is the bucket capacity and the sustained number of requests
	// allowed per Window.
	Max int
	// Window is the period over which Max tokens are refilled.
	Window time.Duration
	// KeyFunc extracts the rate limit key from a request. Defaults to the
	// client IP (X-Forwarded-For, then X-Real-IP, then RemoteAddr).
	KeyFunc func(*http.Request) string
}

// bucket is one client's token bucket state.
type bucket struct {
	tokens   float64
	lastFill time.Time
}

type rateLimiter struct {
	cfg    RateLimitConfig
	rate   float64 // tokens per second
	mu     sync.Mutex
	bucket map[string]*bucket
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	return &rateLimiter{
		cfg:    cfg,
		rate:   float64(cfg.Max) / cfg.Window.Seconds(),
		bucket: make(map[string]*bucket),
	}
}

// take refills the client's bucket for the elapsed time and spends one
// token. It returns the remaining whole tokens and whether the request is
// allowed.
func (rl *rateLimiter) take(key string, now time.Time) (remaining int, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.bucket[key]
	if !ok {
		b = &bucket{tokens: float64(rl.cfg.Max), lastFill: now}
		rl.bucket[key] = b
	}

	b.tokens += now.Sub(b.lastFill).Seconds() * rl.rate
	if b.tokens > float64(rl.cfg.Max) {
		b.tokens = float64(rl.cfg.Max)
	}
	b.lastFill = now

	if b.tokens < 1 {
		return 0, false
	}
	b.tokens--
	return int(b.tokens), true
}

// evict drops buckets that have been idle long enough to refill fully.
func (rl *rateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.bucket {
		if now.Sub(b.lastFill) >= rl.cfg.Window {
			delete(rl.bucket, key)
		}
	}
}

// RateLimit enforces a per-client token bucket limit, responding with 429
// and a JSON body when the bucket is empty. A background goroutine evicts
// idle clients until ctx is cancelled.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)

	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.evict(now)
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, allowed := rl.take(rl.cfg.KeyFunc(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    http.StatusTooManyRequests,
					"message": "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client address from X-Forwarded-For, X-Real-IP,
// or RemoteAddr, in that order.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
