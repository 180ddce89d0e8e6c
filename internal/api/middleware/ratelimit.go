package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RateLimitConfig is a per-client request budget over a sliding window.
// TrustForwarded keys clients on X-Forwarded-For and must only be set when a
// trusted proxy overwrites that header.
type RateLimitConfig struct {
	Name           string
	Window         time.Duration
	Max            int
	Message        string
	TrustForwarded bool
}

// hits is the request log of one client, oldest first
type hits struct {
	mu    sync.Mutex
	times []time.Time
}

// RateLimiter counts requests per client IP over a sliding window
type RateLimiter struct {
	cfg     RateLimitConfig
	clients *lru.Cache[string, *hits]
	now     func() time.Time
	onLimit func(name string)
}

// NewRateLimiter creates a limiter tracking at most maxClients addresses
func NewRateLimiter(cfg RateLimitConfig, maxClients int) (*RateLimiter, error) {
	clients, err := lru.New[string, *hits](maxClients)
	if err != nil {
		return nil, err
	}
	if cfg.Message == "" {
		cfg.Message = "Too many requests. Please slow down."
	}
	return &RateLimiter{cfg: cfg, clients: clients, now: time.Now}, nil
}

// WithClock replaces the limiter clock
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

// OnLimit registers a callback invoked whenever a request is refused
func (l *RateLimiter) OnLimit(fn func(name string)) *RateLimiter {
	l.onLimit = fn
	return l
}

// Allow records a request from key and reports whether it fits the budget,
// along with the remaining budget and when the oldest request leaves the window.
func (l *RateLimiter) Allow(key string) (bool, int, time.Time) {
	now := l.now()
	h, ok := l.clients.Get(key)
	if !ok {
		h = &hits{}
		if prev, found, _ := l.clients.PeekOrAdd(key, h); found {
			h = prev
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := now.Add(-l.cfg.Window)
	keep := 0
	for keep < len(h.times) && !h.times[keep].After(cutoff) {
		keep++
	}
	h.times = h.times[keep:]

	if len(h.times) >= l.cfg.Max {
		return false, 0, h.times[0].Add(l.cfg.Window)
	}
	h.times = append(h.times, now)
	return true, l.cfg.Max - len(h.times), h.times[0].Add(l.cfg.Window)
}

// Middleware rejects requests over budget with 429
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, reset := l.Allow(l.clientKey(r))

		w.Header().Set("RateLimit-Limit", strconv.Itoa(l.cfg.Max))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
		resetIn := int(math.Ceil(reset.Sub(l.now()).Seconds()))
		if resetIn < 0 {
			resetIn = 0
		}
		w.Header().Set("RateLimit-Reset", strconv.Itoa(resetIn))

		if !allowed {
			if l.onLimit != nil {
				l.onLimit(l.cfg.Name)
			}
			w.Header().Set("Retry-After", strconv.Itoa(resetIn))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": l.cfg.Message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) clientKey(r *http.Request) string {
	if l.cfg.TrustForwarded {
		return ForwardedClientIP(r)
	}
	return ClientIP(r)
}

// ForwardedClientIP returns the first X-Forwarded-For hop, falling back to
// the socket address. The header is caller controlled unless a proxy sets it.
func ForwardedClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	return ClientIP(r)
}

// ClientIP returns the socket address of the caller
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
