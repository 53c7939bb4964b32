package goVerify

import (
	"errors"
	"time"

	"github.com/MrEthical07/goVerify/internal/codehash"
	"github.com/MrEthical07/goVerify/internal/limiters"
	internalmailer "github.com/MrEthical07/goVerify/internal/mailer"
	"github.com/MrEthical07/goVerify/internal/stores"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goVerify APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	identity  IdentityProvider
	mail      Mailer
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityProvider describes the withidentityprovider operation and its observable behavior.
//
// WithIdentityProvider may return an error when input validation, dependency calls, or security checks fail.
// WithIdentityProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.identity = p
	return b
}

// WithMailer describes the withmailer operation and its observable behavior.
//
// WithMailer may return an error when input validation, dependency calls, or security checks fail.
// WithMailer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mail = m
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the engine clock. Records, windows, and cooldowns are
// evaluated against this clock; production builds leave it unset.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.identity == nil {
		return nil, errors.New("identity provider required")
	}

	if cfg.Mailer.Enabled && b.mail == nil {
		return nil, errors.New("mailer enabled but no mailer provided")
	}

	records := stores.NewVerificationStore(b.redis, cfg.Redis.RecordPrefix)
	accounts := stores.NewAccountStore(b.redis, cfg.Redis.AccountPrefix)

	engine := &Engine{
		config:   cfg,
		records:  records,
		accounts: accounts,
		binding:  stores.NewBindingStore(b.redis, records, accounts),
		identity: b.identity,
		now:      b.clock,
	}

	engine.sendLimiter = limiters.NewSendLimiter(b.redis, limiters.SendConfig{
		EnableEmailThrottle: cfg.SendLimit.EnableEmailThrottle,
		EnableIPThrottle:    cfg.SendLimit.EnableIPThrottle,
		MaxPerWindow:        cfg.SendLimit.MaxPerWindow,
		Window:              cfg.SendLimit.Window,
	})
	engine.verifyLimiter = limiters.NewVerifyLimiter(b.redis, limiters.VerifyConfig{
		EnableIdentityThrottle: cfg.VerifyLimit.EnableIdentityThrottle,
		EnableIPThrottle:       cfg.VerifyLimit.EnableIPThrottle,
		MaxAttempts:            cfg.VerifyLimit.MaxAttempts,
		Window:                 cfg.VerifyLimit.Window,
	})
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	if cfg.Mailer.Enabled {
		engine.mail = internalmailer.NewDispatcher(internalmailer.DispatcherConfig{
			QueueSize:   cfg.Mailer.QueueSize,
			SendTimeout: cfg.Mailer.SendTimeout,
		}, b.mail)
	}

	ch, err := codehash.NewArgon2(codehash.Config{
		Memory:      cfg.Hash.Memory,
		Time:        cfg.Hash.Time,
		Parallelism: cfg.Hash.Parallelism,
		SaltLength:  cfg.Hash.SaltLength,
		KeyLength:   cfg.Hash.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.codeHash = ch

	b.built = true

	return engine, nil
}
