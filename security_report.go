package goVerify

import "github.com/MrEthical07/goVerify/internal/security"

// SecurityReport describes the securityreport operation and its observable behavior.
//
// SecurityReport may return an error when input validation, dependency calls, or security checks fail.
// SecurityReport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	report := security.BuildReport(security.ReportInput{
		ProductionMode: e.config.Security.ProductionMode,
		CodeDigits:     e.config.Code.Digits,
		CodeTTL:        e.config.Code.TTL,
		Hash: security.HashReport{
			Memory:      e.config.Hash.Memory,
			Time:        e.config.Hash.Time,
			Parallelism: e.config.Hash.Parallelism,
			SaltLength:  e.config.Hash.SaltLength,
			KeyLength:   e.config.Hash.KeyLength,
		},
		EnableEmailThrottle:  e.config.SendLimit.EnableEmailThrottle,
		SendMaxPerWindow:     e.config.SendLimit.MaxPerWindow,
		SendWindow:           e.config.SendLimit.Window,
		EnableVerifyThrottle: e.config.VerifyLimit.EnableIdentityThrottle,
		VerifyMaxAttempts:    e.config.VerifyLimit.MaxAttempts,
		EnableIPThrottle:     e.config.SendLimit.EnableIPThrottle || e.config.VerifyLimit.EnableIPThrottle,
		MaxAttempts:          e.config.Binding.MaxAttempts,
		DeviceChangeCooldown: e.config.Binding.DeviceChangeCooldown,
		MaxDevices:           e.config.Binding.MaxDevices,
		MailEnabled:          e.config.Mailer.Enabled,
		AuditEnabled:         e.config.Audit.Enabled,
	})

	return SecurityReport{
		ProductionMode: report.ProductionMode,
		CodeDigits:     report.CodeDigits,
		CodeTTL:        report.CodeTTL,
		Argon2: HashConfigReport{
			Memory:      report.Argon2.Memory,
			Time:        report.Argon2.Time,
			Parallelism: report.Argon2.Parallelism,
			SaltLength:  report.Argon2.SaltLength,
			KeyLength:   report.Argon2.KeyLength,
		},
		SendThrottleActive:   report.SendThrottleActive,
		VerifyThrottleActive: report.VerifyThrottleActive,
		IPThrottleActive:     report.IPThrottleActive,
		AttemptBudget:        report.AttemptBudget,
		DeviceCooldownActive: report.DeviceCooldownActive,
		DeviceCooldown:       report.DeviceCooldown,
		DeviceCapActive:      report.DeviceCapActive,
		MailDeliveryEnabled:  report.MailDeliveryEnabled,
		AuditEnabled:         report.AuditEnabled,
	}
}
