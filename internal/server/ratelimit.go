package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/logging"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
	Enabled           bool
}

// RateLimiter implements token bucket rate limiting per client key.
type RateLimiter struct {
	buckets     map[string]*TokenBucket
	bucketMutex sync.RWMutex
	config      *RateLimitConfig
	logger      logging.Logger
	now         func() time.Time
	done        chan struct{}
	stopOnce    sync.Once
}

// TokenBucket represents a token bucket for rate limiting
type TokenBucket struct {
	tokens     int
	capacity   int
	refillRate int // tokens per minute
	lastRefill time.Time
	lastAccess time.Time
	mutex      sync.Mutex
}

// RateLimitResult represents the result of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig, logger logging.Logger) *RateLimiter {
	if config == nil {
		config = &RateLimitConfig{RequestsPerMinute: 30, BurstSize: 30, Enabled: true}
	}
	if config.BurstSize <= 0 {
		config.BurstSize = config.RequestsPerMinute
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		logger:  logger,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if config.Enabled {
		go rl.cleanupExpiredBuckets(5 * time.Minute)
	}

	return rl
}

// Check checks if a request is allowed for the given key (usually IP address)
func (rl *RateLimiter) Check(key string) RateLimitResult {
	if !rl.config.Enabled {
		return RateLimitResult{Allowed: true, Remaining: rl.config.BurstSize}
	}

	return rl.getBucket(key).consume(rl.now())
}

func (rl *RateLimiter) getBucket(key string) *TokenBucket {
	now := rl.now()

	rl.bucketMutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.bucketMutex.RUnlock()
	if exists {
		return bucket
	}

	rl.bucketMutex.Lock()
	defer rl.bucketMutex.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists := rl.buckets[key]; exists {
		return bucket
	}
	bucket = &TokenBucket{
		tokens:     rl.config.BurstSize,
		capacity:   rl.config.BurstSize,
		refillRate: rl.config.RequestsPerMinute,
		lastRefill: now,
		lastAccess: now,
	}
	rl.buckets[key] = bucket

	return bucket
}

func (tb *TokenBucket) consume(now time.Time) RateLimitResult {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.lastAccess = now
	tb.refill(now)

	if tb.tokens > 0 {
		tb.tokens--

		return RateLimitResult{Allowed: true, Remaining: tb.tokens}
	}

	return RateLimitResult{RetryAfter: time.Minute / time.Duration(tb.refillRate)}
}

// refill adds whole tokens for the time elapsed since the last refill.
func (tb *TokenBucket) refill(now time.Time) {
	perToken := time.Minute / time.Duration(tb.refillRate)
	added := int(now.Sub(tb.lastRefill) / perToken)
	if added <= 0 {
		return
	}
	tb.tokens += added
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = tb.lastRefill.Add(time.Duration(added) * perToken)
}

func (rl *RateLimiter) cleanupExpiredBuckets(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.performCleanup(10 * time.Minute)
		case <-rl.done:
			return
		}
	}
}

// performCleanup removes buckets idle for longer than expiry.
func (rl *RateLimiter) performCleanup(expiry time.Duration) {
	rl.bucketMutex.Lock()
	defer rl.bucketMutex.Unlock()

	now := rl.now()
	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		if now.Sub(bucket.lastAccess) > expiry {
			delete(rl.buckets, key)
		}
		bucket.mutex.Unlock()
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Buckets returns the number of tracked clients.
func (rl *RateLimiter) Buckets() int {
	rl.bucketMutex.RLock()
	defer rl.bucketMutex.RUnlock()

	return len(rl.buckets)
}

// rateLimited guards routes that make outbound requests.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)
		result := s.limiter.Check(clientIP)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.limiter.config.RequestsPerMinute))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retry := int(result.RetryAfter.Round(time.Second).Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			s.logger.Warn(r.Context(), nil, "Rate limit exceeded", "ip", clientIP, "path", r.URL.Path)
			s.writeErrorStatus(w, r, http.StatusTooManyRequests,
				errors.NewValidationError(errors.ErrCodeRateLimited, "too many requests, try again shortly"))

			return
		}

		next.ServeHTTP(w, r)
	})
}
