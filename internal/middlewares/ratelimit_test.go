package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(4) // burst of 2
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := rl.Middleware(ok)

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:5002"))

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:5000"))

	// One token every 15s.
	now = now.Add(15 * time.Second)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:5003"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:5004"))
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(60)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	assert.Len(t, rl.limiters, 2)

	now = now.Add(limiterIdle + time.Second)
	rl.Allow("c")
	assert.Len(t, rl.limiters, 1)
}

func TestRateLimiter_SweepsPeriodically(t *testing.T) {
	rl := NewRateLimiter(60)
	start := time.Now()
	now := start
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	assert.Equal(t, start, rl.lastSweep)

	now = start.Add(limiterIdle - 30*time.Second)
	rl.Allow("b")
	assert.Equal(t, now, rl.lastSweep)

	// "a" has expired but the next sweep is not due yet.
	now = start.Add(limiterIdle + time.Second)
	rl.Allow("c")
	assert.Len(t, rl.limiters, 3)

	now = now.Add(limiterSweep)
	rl.Allow("d")
	assert.Len(t, rl.limiters, 3)
	assert.NotContains(t, rl.limiters, "a")
}
