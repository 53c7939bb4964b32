package goVerify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goVerify/internal"
	"github.com/MrEthical07/goVerify/internal/limiters"
	"github.com/MrEthical07/goVerify/internal/stores"
)

// VerifyCode describes the verifycode operation and its observable behavior.
//
// VerifyCode may return an error when input validation, dependency calls, or security checks fail.
// VerifyCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyCodeResult, error) {
	if e == nil || e.codeHash == nil || e.binding == nil || e.identity == nil {
		return nil, ErrEngineNotReady
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	deviceID := strings.TrimSpace(req.DeviceID)

	if err := validateEmail(email); err != nil {
		e.metricInc(MetricVerifyFailure)
		return nil, err
	}
	if deviceID == "" || len(deviceID) > maxDeviceIDLength {
		e.metricInc(MetricVerifyFailure)
		return nil, fmt.Errorf("%w: device id", ErrInvalidRequest)
	}
	if err := validateCodeShape(req.Code, e.config.Code.Digits); err != nil {
		e.metricInc(MetricVerifyFailure)
		return nil, err
	}

	ip := clientIPFromContext(ctx)
	identityKey := internal.IdentityKey(email, deviceID)

	if e.verifyLimiter != nil {
		if err := e.verifyLimiter.Check(ctx, identityKey, ip); err != nil {
			if !errors.Is(err, limiters.ErrRateLimited) {
				e.metricInc(MetricVerifyFailure)
				return nil, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
			}
			e.metricInc(MetricVerifyRateLimited)
			e.emitAudit(ctx, auditEventVerifyRateLimited, false, email, deviceID, "", ErrVerifyRateLimited, nil)
			e.emitRateLimit(ctx, "verify", email, nil)
			return nil, ErrVerifyRateLimited
		}
	}

	start := time.Now()
	bindResult, err := e.binding.Bind(ctx, stores.BindRequest{
		IdentityKey: identityKey,
		Email:       email,
		DeviceID:    deviceID,
		Code:        req.Code,
		VerifyCode:  e.codeHash.Verify,
		MaxAttempts: e.config.Binding.MaxAttempts,
		Cooldown:    e.config.Binding.DeviceChangeCooldown,
		MaxDevices:  e.config.Binding.MaxDevices,
		Now:         e.nowTime(),
	})
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}
	if err != nil {
		return nil, e.verifyFailure(ctx, email, deviceID, err)
	}

	device := boundDeviceToPublic(bindResult.Device)

	identity, created, err := e.resolveIdentity(ctx, email)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, email, deviceID, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricVerifySuccess)
	if bindResult.NewDevice {
		e.metricInc(MetricDeviceBound)
		e.emitAudit(ctx, auditEventDeviceBound, true, email, deviceID, identity.AccountID, nil, nil)
	} else {
		e.metricInc(MetricDeviceRebound)
		e.emitAudit(ctx, auditEventDeviceRebound, true, email, deviceID, identity.AccountID, nil, nil)
	}
	e.emitAudit(ctx, auditEventVerifySuccess, true, email, deviceID, identity.AccountID, nil, nil)

	return &VerifyCodeResult{
		AccountID: identity.AccountID,
		Device:    device,
		Created:   created,
		NewDevice: bindResult.NewDevice,
	}, nil
}

func (e *Engine) verifyFailure(ctx context.Context, email, deviceID string, err error) error {
	var cooldown *stores.CooldownError

	switch {
	case errors.Is(err, stores.ErrNotFound):
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, email, deviceID, "", ErrVerificationNotFound, nil)
		return ErrVerificationNotFound
	case errors.Is(err, stores.ErrExpired):
		e.metricInc(MetricCodeExpired)
		e.emitAudit(ctx, auditEventVerifyFailure, false, email, deviceID, "", ErrCodeExpired, nil)
		return ErrCodeExpired
	case errors.Is(err, stores.ErrCodeMismatch):
		e.metricInc(MetricCodeMismatch)
		e.emitAudit(ctx, auditEventVerifyFailure, false, email, deviceID, "", ErrCodeInvalid, nil)
		return ErrCodeInvalid
	case errors.Is(err, stores.ErrAttemptsExceeded):
		e.metricInc(MetricAttemptsExceeded)
		e.emitAudit(ctx, auditEventVerifyFailure, false, email, deviceID, "", ErrAttemptsExceeded, nil)
		return ErrAttemptsExceeded
	case errors.Is(err, stores.ErrDeviceLimit):
		e.metricInc(MetricDeviceLimitExceeded)
		e.emitAudit(ctx, auditEventVerifyFailure, false, email, deviceID, "", ErrDeviceLimitExceeded, nil)
		return ErrDeviceLimitExceeded
	case errors.As(err, &cooldown):
		e.metricInc(MetricDeviceChangeThrottled)
		e.emitAudit(ctx, auditEventDeviceChangeThrottled, false, email, deviceID, "", ErrDeviceChangeThrottled, func() map[string]string {
			return map[string]string{
				"remaining": cooldown.Remaining.String(),
			}
		})
		return &DeviceChangeThrottledError{Remaining: cooldown.Remaining}
	default:
		e.metricInc(MetricVerifyFailure)
		wrapped := fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
		e.emitAudit(ctx, auditEventVerifyFailure, false, email, deviceID, "", wrapped, nil)
		return wrapped
	}
}

// resolveIdentity looks up the account for a verified email and provisions it
// on first verification.
func (e *Engine) resolveIdentity(ctx context.Context, email string) (IdentityRecord, bool, error) {
	identity, err := e.identity.GetByEmail(ctx, email)
	if err == nil {
		return identity, false, nil
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return IdentityRecord{}, false, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	identity, err = e.identity.Create(ctx, CreateIdentityInput{
		Email:    email,
		Verified: true,
	})
	if err != nil {
		return IdentityRecord{}, false, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	e.metricInc(MetricIdentityCreated)
	e.emitAudit(ctx, auditEventIdentityCreated, true, email, "", identity.AccountID, nil, nil)

	return identity, true, nil
}

func validateCodeShape(code string, digits int) error {
	if len(code) != digits {
		return fmt.Errorf("%w: code", ErrInvalidRequest)
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return fmt.Errorf("%w: code", ErrInvalidRequest)
		}
	}
	return nil
}

func boundDeviceToPublic(d stores.BoundDevice) Device {
	return Device{
		DeviceID:   d.DeviceID,
		Label:      d.Label,
		Platform:   d.Platform,
		VerifiedAt: time.Unix(d.VerifiedAt, 0).UTC(),
		CreatedAt:  time.Unix(d.CreatedAt, 0).UTC(),
		LastUsedAt: time.Unix(d.LastUsedAt, 0).UTC(),
	}
}
