package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dpaschgit/lbaasv1/internal/config"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// clientLimiter holds the token bucket for one client address.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-client token bucket to the API.
type RateLimiter struct {
	cfg     config.RateLimitConfig
	mu      sync.Mutex
	clients map[string]*clientLimiter
	logger  *logger.Logger
}

// NewRateLimiter creates a rate limiting middleware from configuration.
func NewRateLimiter(cfg config.RateLimitConfig, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientLimiter),
		logger:  log.WithField("component", "rate_limit"),
	}
}

// Limit wraps a handler chain with the rate limit check.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := clientAddr(r)
		limiter := rl.limiterFor(clientIP)

		if !limiter.Allow() {
			rl.logger.WithFields(map[string]interface{}{
				"client_ip": clientIP,
				"path":      r.URL.Path,
			}).Warn("request rate limited")

			w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(rl.cfg.RequestsPerSecond, 'f', 0, 64))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(rl.cfg.RequestsPerSecond, 'f', 0, 64))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiterFor(clientIP string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, exists := rl.clients[clientIP]
	if !exists {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.BurstSize),
		}
		rl.clients[clientIP] = client
	}
	client.lastSeen = time.Now()

	// Opportunistic eviction of buckets idle for an hour.
	if len(rl.clients) > 1024 {
		cutoff := time.Now().Add(-time.Hour)
		for key, c := range rl.clients {
			if c.lastSeen.Before(cutoff) {
				delete(rl.clients, key)
			}
		}
	}

	return client.limiter
}

// clientAddr extracts the client address, preferring proxy headers.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if parts := strings.Split(xff, ","); len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
