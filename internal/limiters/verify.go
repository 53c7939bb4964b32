package limiters

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goVerify/internal"
)

type VerifyConfig struct {
	EnableIdentityThrottle bool
	EnableIPThrottle       bool
	MaxAttempts            int
	Window                 time.Duration
}

// VerifyLimiter throttles verify calls with fixed-window counters, keyed by
// the verification identity and optionally by caller IP. It sits in front of
// the per-record attempt budget and absorbs scans across many identities.
type VerifyLimiter struct {
	redis  redis.UniversalClient
	config VerifyConfig
}

func NewVerifyLimiter(redisClient redis.UniversalClient, cfg VerifyConfig) *VerifyLimiter {
	return &VerifyLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *VerifyLimiter) Check(ctx context.Context, identityKey, ip string) error {
	if l.config.EnableIdentityThrottle {
		if err := l.enforceFixedWindow(ctx, verifyIdentityThrottleKey(identityKey)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, verifyIPKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *VerifyLimiter) enforceFixedWindow(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func verifyIdentityThrottleKey(identityKey string) string {
	return "gvverify:" + identityKey
}

func verifyIPKey(ip string) string {
	return "gvverifyip:" + internal.HashBindingValue(ip)
}
