package goVerify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goVerify/internal"
	"github.com/MrEthical07/goVerify/internal/limiters"
	"github.com/MrEthical07/goVerify/internal/mailer"
	"github.com/MrEthical07/goVerify/internal/stores"
)

const (
	maxEmailLength    = 254
	maxDeviceIDLength = 128
	maxLabelLength    = 64
)

// SendCode describes the sendcode operation and its observable behavior.
//
// SendCode may return an error when input validation, dependency calls, or security checks fail.
// SendCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SendCode(ctx context.Context, req SendCodeRequest) (*SendCodeResult, error) {
	if e == nil || e.codeHash == nil || e.records == nil {
		return nil, ErrEngineNotReady
	}

	email, deviceID, err := normalizeSendRequest(&req)
	if err != nil {
		e.metricInc(MetricSendFailure)
		return nil, err
	}

	ip := clientIPFromContext(ctx)
	now := e.nowTime()

	e.emitAudit(ctx, auditEventSendRequested, true, email, deviceID, "", nil, nil)

	if e.sendLimiter != nil {
		if err := e.sendLimiter.Reserve(ctx, email, ip, now); err != nil {
			var retry *limiters.RetryAfterError
			if errors.As(err, &retry) {
				e.metricInc(MetricSendRateLimited)
				e.emitAudit(ctx, auditEventSendRateLimited, false, email, deviceID, "", ErrSendRateLimited, func() map[string]string {
					return map[string]string{
						"retry_after": retry.RetryAfter.String(),
					}
				})
				e.emitRateLimit(ctx, "send", email, nil)
				return nil, &RateLimitedError{RetryAfter: retry.RetryAfter}
			}
			e.metricInc(MetricSendFailure)
			return nil, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
		}
	}

	code, err := internal.NewOTP(e.config.Code.Digits)
	if err != nil {
		e.metricInc(MetricSendFailure)
		return nil, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}

	codeHash, err := e.codeHash.Hash(code)
	if err != nil {
		e.metricInc(MetricSendFailure)
		return nil, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}

	identityKey := internal.IdentityKey(email, deviceID)

	// A resend always supersedes: the previous record is removed before the
	// replacement is written, so at most one live code exists per pair.
	existed, err := e.records.Invalidate(ctx, identityKey)
	if err != nil {
		e.metricInc(MetricSendFailure)
		return nil, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	if existed {
		e.metricInc(MetricSendSuperseded)
	}

	record := stores.VerificationRecord{
		Email:     email,
		DeviceID:  deviceID,
		Label:     req.DeviceLabel,
		Platform:  req.Platform,
		CodeHash:  codeHash,
		Attempts:  0,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(e.config.Code.TTL).Unix(),
	}

	if err := e.records.Create(ctx, identityKey, &record, e.config.Code.TTL); err != nil {
		e.metricInc(MetricSendFailure)
		return nil, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}

	// Delivery is best-effort and off the request path. A full queue or a
	// failed send never rolls back the stored record.
	if e.mail != nil {
		dropped := e.mail.Dropped()
		e.mail.Enqueue(mailer.Message{
			To:      email,
			Subject: e.config.Mailer.Subject,
			Body:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(e.config.Code.TTL.Minutes())),
		})
		if e.mail.Dropped() > dropped {
			e.metricInc(MetricMailDropped)
			e.emitAudit(ctx, auditEventMailEnqueueFailed, false, email, deviceID, "", ErrMailerUnavailable, nil)
		} else {
			e.metricInc(MetricMailEnqueued)
		}
	}

	e.metricInc(MetricSendSuccess)
	e.emitAudit(ctx, auditEventCodeIssued, true, email, deviceID, "", nil, func() map[string]string {
		return map[string]string{
			"superseded": fmt.Sprintf("%t", existed),
		}
	})

	return &SendCodeResult{ExpiresIn: e.config.Code.TTL}, nil
}

func normalizeSendRequest(req *SendCodeRequest) (email, deviceID string, err error) {
	email = strings.ToLower(strings.TrimSpace(req.Email))
	deviceID = strings.TrimSpace(req.DeviceID)

	if err := validateEmail(email); err != nil {
		return "", "", err
	}
	if deviceID == "" || len(deviceID) > maxDeviceIDLength {
		return "", "", fmt.Errorf("%w: device id", ErrInvalidRequest)
	}
	if len(req.DeviceLabel) > maxLabelLength {
		return "", "", fmt.Errorf("%w: device label too long", ErrInvalidRequest)
	}
	if len(req.Platform) > maxLabelLength {
		return "", "", fmt.Errorf("%w: platform too long", ErrInvalidRequest)
	}

	return email, deviceID, nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLength {
		return fmt.Errorf("%w: email", ErrInvalidRequest)
	}

	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("%w: email", ErrInvalidRequest)
	}
	if !strings.Contains(email[at+1:], ".") {
		return fmt.Errorf("%w: email", ErrInvalidRequest)
	}

	return nil
}
