package limiters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goVerify/internal"
)

var (
	ErrRateLimited        = errors.New("rate limited")
	ErrLimiterUnavailable = errors.New("limiter unavailable")
)

// RetryAfterError is returned when the sliding send window is full. It
// carries the wait until the oldest send in the window ages out.
type RetryAfterError struct {
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func (e *RetryAfterError) Unwrap() error { return ErrRateLimited }

type SendConfig struct {
	EnableEmailThrottle bool
	EnableIPThrottle    bool
	MaxPerWindow        int
	Window              time.Duration
}

// SendLimiter enforces a sliding-window budget on code sends. Each send is
// recorded as a timestamped sorted-set member; entries older than the window
// are trimmed before counting, so the budget recovers continuously instead
// of resetting at a window boundary.
type SendLimiter struct {
	redis  redis.UniversalClient
	config SendConfig
}

func NewSendLimiter(redisClient redis.UniversalClient, cfg SendConfig) *SendLimiter {
	return &SendLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Reserve counts a send against the window for the email (and IP, when
// enabled). On a full window it returns a [*RetryAfterError] and records
// nothing.
func (l *SendLimiter) Reserve(ctx context.Context, email, ip string, now time.Time) error {
	if l.config.EnableEmailThrottle {
		if err := l.reserveWindow(ctx, sendEmailKey(email), now); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.reserveWindow(ctx, sendIPKey(ip), now); err != nil {
			return err
		}
	}
	return nil
}

func (l *SendLimiter) reserveWindow(ctx context.Context, key string, now time.Time) error {
	cutoff := now.Add(-l.config.Window).UnixMilli()

	if err := l.redis.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	count, err := l.redis.ZCard(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if count >= int64(l.config.MaxPerWindow) {
		oldest, err := l.redis.ZRangeWithScores(ctx, key, 0, 0).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}

		retryAfter := l.config.Window
		if len(oldest) > 0 {
			expiresAt := time.UnixMilli(int64(oldest[0].Score)).Add(l.config.Window)
			if wait := expiresAt.Sub(now); wait > 0 {
				retryAfter = wait
			}
		}
		return &RetryAfterError{RetryAfter: retryAfter}
	}

	// The member must be unique per send: a timestamp-only member would
	// collapse concurrent or same-tick sends into one entry and let the
	// window cap be bypassed.
	if err := l.redis.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	}).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	return nil
}

func sendEmailKey(email string) string {
	return "gvsend:" + email
}

// IP keys store the hash of the address, not the address itself.
func sendIPKey(ip string) string {
	return "gvsendip:" + internal.HashBindingValue(ip)
}
