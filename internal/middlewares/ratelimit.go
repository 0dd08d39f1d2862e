package middlewares

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sbilibin2017/recipe-share/internal/logger"
	"golang.org/x/time/rate"
)

const (
	limiterIdle  = 5 * time.Minute
	limiterSweep = time.Minute
)

type ipLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters  map[string]*ipLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per IP with a burst of half that.
func NewRateLimiter(perMinute int) *RateLimiter {
	perMinute = max(perMinute, 1)
	return &RateLimiter{
		limiters: make(map[string]*ipLimiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
		now:      time.Now,
	}
}

// Allow takes a token from the bucket of ip.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= limiterSweep {
		rl.sweepLocked(now)
	}

	l, ok := rl.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = l
	}
	l.expires = now.Add(limiterIdle)
	return l.limiter.AllowN(now, 1)
}

// sweepLocked drops buckets idle for longer than limiterIdle.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for key, l := range rl.limiters {
		if now.After(l.expires) {
			delete(rl.limiters, key)
		}
	}
	rl.lastSweep = now
}

// Middleware answers 429 once the client IP runs out of tokens.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			logger.Log.Infow("rate limit exceeded", "ip", ip, "uri", r.RequestURI)
			writeDetail(w, http.StatusTooManyRequests, "Request was throttled.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
