package http

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultRate  = 20
	DefaultBurst = 40

	limiterIdle = 10 * time.Minute
)

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per user. Scroll events arrive in bursts;
// the limit keeps one client from flooding the catalog service.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	now   func() time.Time

	mu    sync.Mutex
	users map[string]*userLimiter
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:   rate.Limit(rps),
		burst: burst,
		now:   time.Now,
		users: make(map[string]*userLimiter),
	}
}

func (l *RateLimiter) allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	u, ok := l.users[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.users[userID] = u
	}
	u.lastSeen = now
	l.sweep(now)
	return u.limiter.AllowN(now, 1)
}

// sweep must be called with mu held.
func (l *RateLimiter) sweep(now time.Time) {
	for id, u := range l.users {
		if now.Sub(u.lastSeen) > limiterIdle {
			delete(l.users, id)
		}
	}
}

// Middleware must run after AuthMiddleware.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(getUserIDFromContext(r.Context())) {
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
