package security

import "time"

type HashReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

type Report struct {
	ProductionMode       bool
	CodeDigits           int
	CodeTTL              time.Duration
	Argon2               HashReport
	SendThrottleActive   bool
	VerifyThrottleActive bool
	IPThrottleActive     bool
	AttemptBudget        int
	DeviceCooldownActive bool
	DeviceCooldown       time.Duration
	DeviceCapActive      bool
	MailDeliveryEnabled  bool
	AuditEnabled         bool
}

type ReportInput struct {
	ProductionMode       bool
	CodeDigits           int
	CodeTTL              time.Duration
	Hash                 HashReport
	EnableEmailThrottle  bool
	SendMaxPerWindow     int
	SendWindow           time.Duration
	EnableVerifyThrottle bool
	VerifyMaxAttempts    int
	EnableIPThrottle     bool
	MaxAttempts          int
	DeviceChangeCooldown time.Duration
	MaxDevices           int
	MailEnabled          bool
	AuditEnabled         bool
}

func BuildReport(input ReportInput) Report {
	sendThrottle := input.EnableEmailThrottle &&
		input.SendMaxPerWindow > 0 &&
		input.SendWindow > 0

	verifyThrottle := input.EnableVerifyThrottle &&
		input.VerifyMaxAttempts > 0

	return Report{
		ProductionMode:       input.ProductionMode,
		CodeDigits:           input.CodeDigits,
		CodeTTL:              input.CodeTTL,
		Argon2:               input.Hash,
		SendThrottleActive:   sendThrottle,
		VerifyThrottleActive: verifyThrottle,
		IPThrottleActive:     input.EnableIPThrottle,
		AttemptBudget:        input.MaxAttempts,
		DeviceCooldownActive: input.DeviceChangeCooldown > 0,
		DeviceCooldown:       input.DeviceChangeCooldown,
		DeviceCapActive:      input.MaxDevices > 0,
		MailDeliveryEnabled:  input.MailEnabled,
		AuditEnabled:         input.AuditEnabled,
	}
}
