package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/itwistiks/physics-bot/internal/domain/shared"
	tgclient "github.com/itwistiks/physics-bot/internal/infrastructure/external/telegram"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMIT MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the per-user rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate each user may send.
	RequestsPerMinute int

	// BurstSize is how many updates a user may send back to back.
	// Pupils often tap an answer and immediately ask the next task,
	// so the burst stays above one.
	BurstSize int

	// BanThreshold is the number of violations in a row before a
	// temporary ban kicks in.
	BanThreshold int

	// BanDuration is how long a temporary ban lasts.
	BanDuration time.Duration

	// CleanupInterval is how often idle buckets get dropped.
	CleanupInterval time.Duration

	Logger *slog.Logger
}

// DefaultRateLimitConfig returns sensible defaults for the rate limiter.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 20,
		BurstSize:         5,
		BanThreshold:      3,
		BanDuration:       10 * time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

// RateLimiter tracks a token bucket per user.
type RateLimiter struct {
	config  RateLimitConfig
	logger  *slog.Logger
	buckets sync.Map // int64 -> *tokenBucket
	bans    sync.Map // int64 -> time.Time
	done    chan struct{}
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	violations int
	lastViol   time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	defaults := DefaultRateLimitConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.BurstSize <= 0 {
		config.BurstSize = defaults.BurstSize
	}
	if config.BanThreshold <= 0 {
		config.BanThreshold = defaults.BanThreshold
	}
	if config.BanDuration <= 0 {
		config.BanDuration = defaults.BanDuration
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	rl := &RateLimiter{
		config: config,
		logger: config.Logger,
		done:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Close stops the cleanup loop.
func (rl *RateLimiter) Close() {
	close(rl.done)
}

// Allow reports whether an update from the user may proceed.
// When it may not, retryAfter says how long the user should wait.
func (rl *RateLimiter) Allow(userID int64) (allowed bool, retryAfter time.Duration) {
	if until, banned := rl.activeBan(userID); banned {
		return false, time.Until(until)
	}

	bucket := rl.bucket(userID)
	allowed, retryAfter = bucket.consume()
	if allowed {
		return true, 0
	}

	if bucket.recordViolation() >= rl.config.BanThreshold {
		expires := time.Now().Add(rl.config.BanDuration)
		rl.bans.Store(userID, expires)
		rl.logger.Warn("user temporarily banned for flooding",
			"user_id", userID,
			"until", expires,
		)
		return false, rl.config.BanDuration
	}
	return false, retryAfter
}

func (rl *RateLimiter) activeBan(userID int64) (time.Time, bool) {
	val, ok := rl.bans.Load(userID)
	if !ok {
		return time.Time{}, false
	}
	until := val.(time.Time)
	if time.Now().After(until) {
		rl.bans.Delete(userID)
		return time.Time{}, false
	}
	return until, true
}

func (rl *RateLimiter) bucket(userID int64) *tokenBucket {
	if val, ok := rl.buckets.Load(userID); ok {
		return val.(*tokenBucket)
	}
	b := &tokenBucket{
		tokens:     float64(rl.config.BurstSize),
		maxTokens:  float64(rl.config.BurstSize),
		refillRate: float64(rl.config.RequestsPerMinute) / 60.0,
		lastRefill: time.Now(),
	}
	actual, _ := rl.buckets.LoadOrStore(userID, b)
	return actual.(*tokenBucket)
}

func (b *tokenBucket) consume() (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true, 0
	}

	deficit := 1.0 - b.tokens
	return false, time.Duration(deficit / b.refillRate * float64(time.Second))
}

// recordViolation bumps the violation counter and returns its new value.
// The counter resets after five quiet minutes.
func (b *tokenBucket) recordViolation() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if time.Since(b.lastViol) > 5*time.Minute {
		b.violations = 0
	}
	b.violations++
	b.lastViol = time.Now()
	return b.violations
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup drops full idle buckets and expired bans.
func (rl *RateLimiter) cleanup() {
	now := time.Now()
	rl.buckets.Range(func(key, val any) bool {
		b := val.(*tokenBucket)
		b.mu.Lock()
		idle := now.Sub(b.lastRefill) > rl.config.CleanupInterval && b.violations == 0
		b.mu.Unlock()
		if idle {
			rl.buckets.Delete(key)
		}
		return true
	})
	rl.bans.Range(func(key, val any) bool {
		if now.After(val.(time.Time)) {
			rl.bans.Delete(key)
		}
		return true
	})
}

// limitMessage formats the wait hint shown to a flooded user.
func limitMessage(retryAfter time.Duration) string {
	seconds := int(retryAfter.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	if seconds < 60 {
		return fmt.Sprintf("⏳ Слишком много запросов!\n\nПодожди %d сек. и попробуй снова.", seconds)
	}
	return fmt.Sprintf("⏳ Слишком много запросов!\n\nПодожди %d мин. и попробуй снова.", (seconds+59)/60)
}

// RateLimit rejects updates from users who send too many, answering them
// with a wait hint. The hint itself is sent at most once per violation
// streak so the bot does not add to the flood.
func RateLimit(limiter *RateLimiter, notifier Notifier) Middleware {
	var notified sync.Map // int64 -> struct{}

	return func(next tgclient.UpdateHandler) tgclient.UpdateHandler {
		return func(ctx context.Context, update *tgclient.Update) error {
			userID := updateUserID(update)
			if userID == 0 {
				return next(ctx, update)
			}

			allowed, retryAfter := limiter.Allow(userID)
			if allowed {
				notified.Delete(userID)
				return next(ctx, update)
			}

			if notifier != nil {
				if _, already := notified.LoadOrStore(userID, struct{}{}); !already {
					if err := notifier.Notify(ctx, shared.TelegramID(userID), limitMessage(retryAfter)); err != nil {
						limiter.logger.Warn("failed to send rate limit hint", "user_id", userID, "error", err)
					}
				}
			}
			return nil
		}
	}
}
