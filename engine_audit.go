package goVerify

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSendRequested         = "send_requested"
	auditEventCodeIssued            = "code_issued"
	auditEventSendRateLimited       = "send_rate_limited"
	auditEventVerifySuccess         = "verify_success"
	auditEventVerifyFailure         = "verify_failure"
	auditEventVerifyRateLimited     = "verify_rate_limited"
	auditEventDeviceBound           = "device_bound"
	auditEventDeviceRebound         = "device_rebound"
	auditEventDeviceChangeThrottled = "device_change_throttled"
	auditEventIdentityCreated       = "identity_created"
	auditEventMailEnqueueFailed     = "mail_enqueue_failed"
	auditEventRateLimitTriggered    = "rate_limit_triggered"
)

// AuditErrorCode defines a public type used by goVerify APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidRequest   AuditErrorCode = "invalid_request"
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrNotFound         AuditErrorCode = "not_found"
	auditErrCodeExpired      AuditErrorCode = "code_expired"
	auditErrCodeInvalid      AuditErrorCode = "code_invalid"
	auditErrAttemptsExceeded AuditErrorCode = "attempts_exceeded"
	auditErrDeviceThrottled  AuditErrorCode = "device_change_throttled"
	auditErrDeviceLimit      AuditErrorCode = "device_limit_exceeded"
	auditErrIdentityNotFound AuditErrorCode = "identity_not_found"
	auditErrIdentityBackend  AuditErrorCode = "identity_backend"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	email string,
	deviceID string,
	accountID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Email:     email,
		DeviceID:  deviceID,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(
	ctx context.Context,
	scope string,
	email string,
	metadataBuilder func() map[string]string,
) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, email, "", "", nil, func() map[string]string {
		base := map[string]string{
			"scope": scope,
		}
		if metadataBuilder == nil {
			return base
		}
		for k, v := range metadataBuilder() {
			base[k] = v
		}
		return base
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return auditErrInvalidRequest
	case errors.Is(err, ErrSendRateLimited),
		errors.Is(err, ErrVerifyRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrVerificationNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrCodeExpired):
		return auditErrCodeExpired
	case errors.Is(err, ErrCodeInvalid):
		return auditErrCodeInvalid
	case errors.Is(err, ErrAttemptsExceeded):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrDeviceChangeThrottled):
		return auditErrDeviceThrottled
	case errors.Is(err, ErrDeviceLimitExceeded):
		return auditErrDeviceLimit
	case errors.Is(err, ErrIdentityNotFound):
		return auditErrIdentityNotFound
	case errors.Is(err, ErrIdentityUnavailable):
		return auditErrIdentityBackend
	case errors.Is(err, ErrVerificationUnavailable),
		errors.Is(err, ErrMailerUnavailable),
		errors.Is(err, ErrEngineNotReady):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
