package goVerify

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRequest is an exported constant or variable used by the verification engine.
	ErrInvalidRequest = errors.New("invalid verification request")
	// ErrSendRateLimited is an exported constant or variable used by the verification engine.
	ErrSendRateLimited = errors.New("code send rate limited")
	// ErrVerifyRateLimited is an exported constant or variable used by the verification engine.
	ErrVerifyRateLimited = errors.New("code verify rate limited")
	// ErrVerificationNotFound is an exported constant or variable used by the verification engine.
	ErrVerificationNotFound = errors.New("verification record not found")
	// ErrCodeExpired is an exported constant or variable used by the verification engine.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeInvalid is an exported constant or variable used by the verification engine.
	ErrCodeInvalid = errors.New("verification code invalid")
	// ErrAttemptsExceeded is an exported constant or variable used by the verification engine.
	ErrAttemptsExceeded = errors.New("verification attempts exceeded")
	// ErrDeviceChangeThrottled is an exported constant or variable used by the verification engine.
	ErrDeviceChangeThrottled = errors.New("device change throttled")
	// ErrDeviceLimitExceeded is an exported constant or variable used by the verification engine.
	ErrDeviceLimitExceeded = errors.New("device limit exceeded")
	// ErrVerificationUnavailable is an exported constant or variable used by the verification engine.
	ErrVerificationUnavailable = errors.New("verification backend unavailable")
	// ErrIdentityUnavailable is an exported constant or variable used by the verification engine.
	ErrIdentityUnavailable = errors.New("identity directory unavailable")
	// ErrIdentityNotFound is an exported constant or variable used by the verification engine.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrMailerUnavailable is an exported constant or variable used by the verification engine.
	ErrMailerUnavailable = errors.New("mailer unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the verification engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitedError wraps [ErrSendRateLimited] with the time the caller must
// wait before the sliding window admits another send.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("code send rate limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrSendRateLimited
}

// DeviceChangeThrottledError wraps [ErrDeviceChangeThrottled] with the time
// remaining in the rolling device-change cooldown.
type DeviceChangeThrottledError struct {
	Remaining time.Duration
}

func (e *DeviceChangeThrottledError) Error() string {
	return fmt.Sprintf("device change throttled, %s remaining", e.Remaining)
}

func (e *DeviceChangeThrottledError) Unwrap() error {
	return ErrDeviceChangeThrottled
}

// RetryAfter reports the send-limit wait carried by err, when err wraps
// [ErrSendRateLimited] through a [RateLimitedError].
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

// CooldownRemaining reports the device-change cooldown carried by err, when
// err wraps [ErrDeviceChangeThrottled] through a [DeviceChangeThrottledError].
func CooldownRemaining(err error) (time.Duration, bool) {
	var th *DeviceChangeThrottledError
	if errors.As(err, &th) {
		return th.Remaining, true
	}
	return 0, false
}
