package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter allows a fixed number of requests per client per minute.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window

	requestsPerMinute int
	staleAfter        time.Duration
	rejected          atomic.Int64
	now               func() time.Time
}

type window struct {
	start    time.Time
	requests int
	last     time.Time
}

type Config struct {
	RequestsPerMinute int
	// entries idle for longer than StaleAfter are dropped by Cleanup
	StaleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 120, StaleAfter: 10 * time.Minute}
}

func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	return &Limiter{
		clients:           make(map[string]*window),
		requestsPerMinute: cfg.RequestsPerMinute,
		staleAfter:        cfg.StaleAfter,
		now:               time.Now,
	}
}

// Allow records a request from clientIP and reports whether it fits in the
// client's current one-minute window.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[clientIP]
	if !ok || now.Sub(w.start) >= time.Minute {
		l.clients[clientIP] = &window{start: now, requests: 1, last: now}
		return true
	}
	w.last = now
	if w.requests >= l.requestsPerMinute {
		l.rejected.Add(1)
		return false
	}
	w.requests++
	return true
}

// Cleanup drops clients that have been idle longer than the stale window.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.staleAfter)
	removed := 0
	for ip, w := range l.clients {
		if w.last.Before(cutoff) {
			delete(l.clients, ip)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := l.Cleanup(); n > 0 {
				slog.DebugContext(ctx, "Rate limiter cleanup", "removed", n, "active_clients", l.ActiveClients())
			}
		}
	}
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) Rejected() int64 {
	return l.rejected.Load()
}

// Middleware rejects over-limit requests with onLimit, or a plain 429 when
// onLimit is nil.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(60))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
