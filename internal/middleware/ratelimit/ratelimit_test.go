package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(perMinute int) (*Limiter, *clock) {
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(Config{RequestsPerMinute: perMinute, StaleAfter: 5 * time.Minute})
	l.now = c.now
	return l, c
}

func TestAllowWindow(t *testing.T) {
	l, c := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.1.1.1") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if l.Allow("1.1.1.1") {
		t.Fatal("fourth request in the window should be rejected")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatal("other clients have their own window")
	}
	if l.Rejected() != 1 {
		t.Fatalf("rejected = %d", l.Rejected())
	}

	c.t = c.t.Add(time.Minute)
	if !l.Allow("1.1.1.1") {
		t.Fatal("a new window should reset the count")
	}
}

func TestCleanupDropsIdleClients(t *testing.T) {
	l, c := newTestLimiter(10)
	l.Allow("a")
	c.t = c.t.Add(4 * time.Minute)
	l.Allow("b")
	c.t = c.t.Add(2 * time.Minute)

	if n := l.Cleanup(); n != 1 {
		t.Fatalf("removed = %d, want 1", n)
	}
	if l.ActiveClients() != 1 {
		t.Fatalf("active = %d", l.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(1)
	h := l.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("missing Retry-After")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
