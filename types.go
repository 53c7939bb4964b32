package goVerify

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/goVerify/internal/audit"
	internalmailer "github.com/MrEthical07/goVerify/internal/mailer"
)

// SendCodeRequest is the input for [Engine.SendCode]. Email and DeviceID are
// required; DeviceLabel and Platform are carried through to the bound device.
type SendCodeRequest struct {
	Email       string
	DeviceID    string
	DeviceLabel string
	Platform    string
}

// SendCodeResult is returned by [Engine.SendCode].
type SendCodeResult struct {
	ExpiresIn time.Duration
}

// VerifyCodeRequest is the input for [Engine.VerifyCode].
type VerifyCodeRequest struct {
	Email    string
	DeviceID string
	Code     string
}

// VerifyCodeResult is returned by [Engine.VerifyCode] on success. Created
// reports whether the identity was created by this call; NewDevice reports
// whether the device entered the roster for the first time.
type VerifyCodeResult struct {
	AccountID string
	Device    Device
	Created   bool
	NewDevice bool
}

// Device is one entry in an account’s device roster.
type Device struct {
	DeviceID   string
	Label      string
	Platform   string
	VerifiedAt time.Time
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// IdentityRecord is the account record returned by [IdentityProvider].
type IdentityRecord struct {
	AccountID string
	Email     string
	Verified  bool
	CreatedAt time.Time
}

// CreateIdentityInput is the input for [IdentityProvider.Create].
type CreateIdentityInput struct {
	Email    string
	Verified bool
}

// IdentityProvider is the interface callers implement to integrate goVerify
// with their account database. GetByEmail must return [ErrIdentityNotFound]
// for unknown emails; the engine then calls Create to provision the account
// lazily on first successful verification.
type IdentityProvider interface {
	GetByEmail(ctx context.Context, email string) (IdentityRecord, error)
	Create(ctx context.Context, input CreateIdentityInput) (IdentityRecord, error)
}

// SecurityReport is a read-only snapshot of the engine’s security posture,
// returned by [Engine.SecurityReport].
type SecurityReport struct {
	ProductionMode       bool
	CodeDigits           int
	CodeTTL              time.Duration
	Argon2               HashConfigReport
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

// HashConfigReport contains the Argon2 parameters active in the engine.
type HashConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine’s audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Mailer delivers a single outbound [MailMessage]. Implement it to use a
// transactional mail provider instead of SMTP.
type Mailer = internalmailer.Mailer

// MailMessage is a single outbound mail handed to a [Mailer].
type MailMessage = internalmailer.Message

// SMTPConfig configures [NewSMTPMailer].
type SMTPConfig = internalmailer.SMTPConfig

// SMTPMailer is the gomail-backed SMTP [Mailer].
type SMTPMailer = internalmailer.SMTPMailer

// NewSMTPMailer creates an [SMTPMailer] from the given SMTP settings.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return internalmailer.NewSMTPMailer(cfg)
}
