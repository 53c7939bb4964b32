package goVerify

import (
	"time"

	"github.com/MrEthical07/goVerify/internal/codehash"
	"github.com/MrEthical07/goVerify/internal/limiters"
	"github.com/MrEthical07/goVerify/internal/mailer"
	"github.com/MrEthical07/goVerify/internal/stores"
)

// Engine defines a public type used by goVerify APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config        Config
	codeHash      *codehash.Argon2
	records       *stores.VerificationStore
	accounts      *stores.AccountStore
	binding       *stores.BindingStore
	sendLimiter   *limiters.SendLimiter
	verifyLimiter *limiters.VerifyLimiter
	identity      IdentityProvider
	mail          *mailer.Dispatcher
	audit         *auditDispatcher
	metrics       *Metrics
	now           func() time.Time
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.mail != nil {
		e.mail.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MailDropped describes the maildropped operation and its observable behavior.
//
// MailDropped may return an error when input validation, dependency calls, or security checks fail.
// MailDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MailDropped() uint64 {
	if e == nil || e.mail == nil {
		return 0
	}
	return e.mail.Dropped()
}

// MailFailed describes the mailfailed operation and its observable behavior.
//
// MailFailed may return an error when input validation, dependency calls, or security checks fail.
// MailFailed does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MailFailed() uint64 {
	if e == nil || e.mail == nil {
		return 0
	}
	return e.mail.Failed()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) nowTime() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}
