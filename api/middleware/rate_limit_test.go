package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLimiter struct {
	counts map[string]int64
	err    error
}

func (m *memoryLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if m.err != nil {
		return false, 0, m.err
	}
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

func TestRateLimitBlocksAfterLimitPerIP(t *testing.T) {
	limiter := &memoryLimiter{}
	handler := RateLimit(NewRateLimitPolicy("login", time.Minute, 2), limiter, nil)(okHandler())

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send("203.0.113.5").Code)
	require.Equal(t, http.StatusOK, send("203.0.113.5").Code)
	blocked := send("203.0.113.5")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("198.51.100.7").Code)
	assert.Contains(t, limiter.counts, "login:ip:203.0.113.5")
}

func TestRateLimitFailsClosedOnStoreError(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("paystack_initialize", time.Minute, 5), &memoryLimiter{err: errors.New("redis down")}, nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("login", 0, 0), &memoryLimiter{err: errors.New("unused")}, nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
