package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerUser(t *testing.T) {
	l := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("u1"))
	assert.True(t, l.allow("u1"))
	assert.False(t, l.allow("u1"))
	assert.True(t, l.allow("u2"))

	now = now.Add(time.Second)
	assert.True(t, l.allow("u1"))
}

func TestRateLimiter_ForgetsIdleUsers(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.allow("u1")
	now = now.Add(limiterIdle + time.Second)
	l.allow("u2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.users, "u1")
	assert.Contains(t, l.users, "u2")
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(0, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := l.Middleware(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, "u1"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
