package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkitlanka/devkit/internal/config"
)

func TestTokenBucket_Consume(t *testing.T) {
	now := time.Now()
	bucket := &TokenBucket{
		tokens:     5,
		capacity:   10,
		refillRate: 60, // 60 tokens per minute = 1 per second
		lastRefill: now,
	}

	for i := range 5 {
		result := bucket.consume(now)
		assert.True(t, result.Allowed)
		assert.Equal(t, 4-i, result.Remaining)
	}

	result := bucket.consume(now)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, time.Second, result.RetryAfter)
}

func TestTokenBucket_Refill(t *testing.T) {
	now := time.Now()
	bucket := &TokenBucket{
		tokens:     0,
		capacity:   10,
		refillRate: 60,
		lastRefill: now.Add(-2500 * time.Millisecond),
	}

	result := bucket.consume(now)
	assert.True(t, result.Allowed)
	// two whole tokens were added, one was spent
	assert.Equal(t, 1, result.Remaining)
	assert.Equal(t, now.Add(-500*time.Millisecond), bucket.lastRefill)
}

func TestTokenBucket_RefillCap(t *testing.T) {
	now := time.Now()
	bucket := &TokenBucket{
		tokens:     5,
		capacity:   10,
		refillRate: 60,
		lastRefill: now.Add(-10 * time.Minute),
	}

	bucket.refill(now)
	assert.Equal(t, 10, bucket.tokens)
}

func TestRateLimiter_Check(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerMinute: 60, BurstSize: 10, Enabled: true}, nil)
	defer limiter.Stop()

	for i := range 10 {
		result := limiter.Check("192.168.1.1")
		assert.True(t, result.Allowed)
		assert.Equal(t, 9-i, result.Remaining)
	}

	assert.False(t, limiter.Check("192.168.1.1").Allowed)
	assert.True(t, limiter.Check("192.168.1.2").Allowed, "other clients have their own bucket")
	assert.Equal(t, 2, limiter.Buckets())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1, Enabled: false}, nil)
	defer limiter.Stop()

	for range 100 {
		assert.True(t, limiter.Check("192.168.1.1").Allowed)
	}
	assert.Equal(t, 0, limiter.Buckets())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerMinute: 60, BurstSize: 10, Enabled: true}, nil)
	defer limiter.Stop()

	clock := time.Now()
	limiter.now = func() time.Time { return clock }

	limiter.Check("old")
	clock = clock.Add(20 * time.Minute)
	limiter.Check("recent")

	limiter.performCleanup(10 * time.Minute)
	assert.Equal(t, 1, limiter.Buckets())
}

func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerMinute: 1, BurstSize: 50, Enabled: true}, nil)
	defer limiter.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if limiter.Check(fmt.Sprintf("10.0.0.%d", i%2)).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
	assert.False(t, limiter.Check("10.0.0.0").Allowed)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	limiter := NewRateLimiter(nil, nil)
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestRateLimitedRoute(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimit = 2
	s := newTestServer(t, cfg)

	handler := s.rateLimited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/github/stars", nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec
	}

	first := do("203.0.113.9")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusNoContent, do("203.0.113.9").Code)

	limited := do("203.0.113.9")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "30", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), `"code":"ERR_RATE_LIMITED"`)

	assert.Equal(t, http.StatusNoContent, do("198.51.100.7").Code)
}
