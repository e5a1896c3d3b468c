package github

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter paces API calls across many repositories so parallel
// replication does not burn through the GitHub rate limit.
type RateLimiter interface {
	// Wait blocks until it's safe to make an API call
	Wait(ctx context.Context) error

	// UpdateLimits feeds the limiter the rate limit state from a response
	UpdateLimits(remaining int, reset time.Time)

	// AcquireSlot takes a slot for concurrent processing (blocks if the
	// limit is reached)
	AcquireSlot(ctx context.Context) error

	// ReleaseSlot returns a slot
	ReleaseSlot()

	// Stats returns current rate limiter statistics
	Stats() RateLimiterStats
}

// RateLimiterStats provides statistics about rate limiter usage
type RateLimiterStats struct {
	RemainingRequests  int           `json:"remaining_requests"`
	ResetTime          time.Time     `json:"reset_time"`
	CurrentDelay       time.Duration `json:"current_delay"`
	ConcurrentSlots    int           `json:"concurrent_slots"`
	MaxConcurrentSlots int           `json:"max_concurrent_slots"`
	TotalWaits         int64         `json:"total_waits"`
	TotalDelayTime     time.Duration `json:"total_delay_time"`
}

// RateLimiterConfig configures the rate limiter behavior
type RateLimiterConfig struct {
	// BaseDelay is the minimum spacing between requests
	BaseDelay time.Duration

	// MaxDelay caps any computed delay
	MaxDelay time.Duration

	// BackoffFactor is the exponential backoff multiplier
	BackoffFactor float64

	// Jitter adds randomness to delays to avoid thundering herd
	Jitter float64

	// ConcurrencyLimit is the maximum number of concurrent repository
	// operations
	ConcurrencyLimit int

	// MinRemainingRequests is the threshold below which aggressive
	// throttling starts
	MinRemainingRequests int

	// AggressiveThrottleDelay is the full delay applied as the remaining
	// budget approaches zero
	AggressiveThrottleDelay time.Duration
}

// DefaultRateLimiterConfig returns a default rate limiter configuration
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		BaseDelay:               100 * time.Millisecond,
		MaxDelay:                30 * time.Second,
		BackoffFactor:           2.0,
		Jitter:                  0.1,
		ConcurrencyLimit:        5,
		MinRemainingRequests:    100,
		AggressiveThrottleDelay: 2 * time.Second,
	}
}

type rateLimiter struct {
	config *RateLimiterConfig
	mu     sync.RWMutex

	// Rate limit tracking
	remaining int
	resetTime time.Time
	lastCall  time.Time

	// Concurrency control
	semaphore chan struct{}

	// Statistics
	stats RateLimiterStats

	// Random source for jitter
	rand *rand.Rand
}

// NewRateLimiter creates a rate limiter. A nil config uses the defaults.
func NewRateLimiter(config *RateLimiterConfig) RateLimiter {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}
	if config.ConcurrencyLimit <= 0 {
		config.ConcurrencyLimit = 1
	}

	limiter := &rateLimiter{
		config:    config,
		remaining: 5000, // GitHub's default hourly budget
		resetTime: time.Now().Add(time.Hour),
		semaphore: make(chan struct{}, config.ConcurrencyLimit),
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	limiter.stats.MaxConcurrentSlots = config.ConcurrencyLimit

	return limiter
}

// Wait blocks until it's safe to make an API call
func (rl *rateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()

	delay := rl.calculateDelay()
	if delay > 0 {
		rl.stats.TotalWaits++
		rl.stats.TotalDelayTime += delay

		// Release the lock while waiting
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		rl.mu.Lock()
	}

	rl.lastCall = time.Now()
	rl.mu.Unlock()
	return nil
}

// UpdateLimits feeds the limiter the rate limit state from a response
func (rl *rateLimiter) UpdateLimits(remaining int, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.remaining = remaining
	rl.resetTime = reset
	rl.stats.RemainingRequests = remaining
	rl.stats.ResetTime = reset
}

// AcquireSlot takes a slot for concurrent processing
func (rl *rateLimiter) AcquireSlot(ctx context.Context) error {
	select {
	case rl.semaphore <- struct{}{}:
		rl.mu.Lock()
		rl.stats.ConcurrentSlots++
		rl.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReleaseSlot returns a slot
func (rl *rateLimiter) ReleaseSlot() {
	select {
	case <-rl.semaphore:
		rl.mu.Lock()
		rl.stats.ConcurrentSlots--
		rl.mu.Unlock()
	default:
		// No slot to release
	}
}

// Stats returns current rate limiter statistics
func (rl *rateLimiter) Stats() RateLimiterStats {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	stats := rl.stats
	stats.CurrentDelay = rl.calculateDelay()
	return stats
}

// calculateDelay computes the delay needed before the next API call.
// Callers must hold at least the read lock.
func (rl *rateLimiter) calculateDelay() time.Duration {
	now := time.Now()

	// A reset in the past means a fresh budget
	if now.After(rl.resetTime) {
		return 0
	}

	var totalDelay time.Duration

	// Base spacing between calls
	if !rl.lastCall.IsZero() {
		sinceLast := now.Sub(rl.lastCall)
		if sinceLast < rl.config.BaseDelay {
			totalDelay = rl.config.BaseDelay - sinceLast
		}
	}

	// Aggressive throttling when the remaining budget is low
	if rl.remaining < rl.config.MinRemainingRequests {
		aggressive := rl.calculateAggressiveDelay()
		if aggressive > totalDelay {
			totalDelay = aggressive
		}
	}

	// Exponential backoff when deep into the budget
	if rl.remaining < 500 {
		backoffMultiplier := math.Pow(rl.config.BackoffFactor, float64(5000-rl.remaining)/1000)
		backoffDelay := time.Duration(float64(rl.config.BaseDelay) * backoffMultiplier)
		if backoffDelay > totalDelay {
			totalDelay = backoffDelay
		}
	}

	// Jitter to avoid thundering herd
	if rl.config.Jitter > 0 && totalDelay > 0 {
		jitterAmount := float64(totalDelay) * rl.config.Jitter
		totalDelay += time.Duration(rl.rand.Float64() * jitterAmount)
	}

	if totalDelay > rl.config.MaxDelay {
		totalDelay = rl.config.MaxDelay
	}

	return totalDelay
}

// calculateAggressiveDelay scales the throttle delay as the remaining
// budget approaches zero.
func (rl *rateLimiter) calculateAggressiveDelay() time.Duration {
	if rl.remaining <= 0 {
		waitTime := time.Until(rl.resetTime)
		if waitTime > 0 {
			return waitTime
		}
		return 0
	}

	remainingRatio := float64(rl.remaining) / float64(rl.config.MinRemainingRequests)
	if remainingRatio >= 1.0 {
		return 0
	}

	delayMultiplier := 1.0 - remainingRatio
	return time.Duration(float64(rl.config.AggressiveThrottleDelay) * delayMultiplier)
}

// RetryWithRateLimit runs op through both the rate limiter and the retry
// loop. The orchestrator funnels every provider operation through it.
func RetryWithRateLimit(ctx context.Context, limiter RateLimiter, config *RetryConfig, op RetryableOperation) error {
	return WithRetry(ctx, func() error {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter wait failed: %w", err)
			}
		}
		return op()
	}, config)
}
