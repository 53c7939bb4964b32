package goVerify

import (
	"errors"
	"time"
)

// Config defines a public type used by goVerify APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Code        CodeConfig
	Hash        HashConfig
	SendLimit   SendLimitConfig
	VerifyLimit VerifyLimitConfig
	Binding     BindingConfig
	Mailer      MailerConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
	Security    SecurityConfig
	Redis       RedisConfig
}

/*
====================================
CODE CONFIG
====================================
*/

// CodeConfig defines a public type used by goVerify APIs.
//
// CodeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CodeConfig struct {
	Digits int
	TTL    time.Duration
}

/*
====================================
HASH CONFIG
====================================
*/

// HashConfig defines a public type used by goVerify APIs.
//
// HashConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HashConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
LIMIT CONFIG
====================================
*/

// SendLimitConfig defines a public type used by goVerify APIs.
//
// SendLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SendLimitConfig struct {
	MaxPerWindow        int
	Window              time.Duration
	EnableEmailThrottle bool
	EnableIPThrottle    bool
}

// VerifyLimitConfig defines a public type used by goVerify APIs.
//
// VerifyLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VerifyLimitConfig struct {
	MaxAttempts            int
	Window                 time.Duration
	EnableIdentityThrottle bool
	EnableIPThrottle       bool
}

/*
====================================
BINDING CONFIG
====================================
*/

// BindingConfig defines a public type used by goVerify APIs.
//
// BindingConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BindingConfig struct {
	MaxAttempts          int
	DeviceChangeCooldown time.Duration
	MaxDevices           int
}

/*
====================================
MAILER CONFIG
====================================
*/

// MailerConfig defines a public type used by goVerify APIs.
//
// MailerConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MailerConfig struct {
	Enabled     bool
	From        string
	Subject     string
	QueueSize   int
	SendTimeout time.Duration
}

// AuditConfig defines a public type used by goVerify APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goVerify APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by goVerify APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	ProductionMode bool
}

/*
====================================
REDIS CONFIG
====================================
*/

// RedisConfig defines a public type used by goVerify APIs.
//
// RedisConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RedisConfig struct {
	RecordPrefix  string
	AccountPrefix string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Code: CodeConfig{
			Digits: 6,
			TTL:    10 * time.Minute,
		},
		Hash: HashConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		SendLimit: SendLimitConfig{
			MaxPerWindow:        5,
			Window:              1 * time.Hour,
			EnableEmailThrottle: true,
			EnableIPThrottle:    false,
		},
		VerifyLimit: VerifyLimitConfig{
			MaxAttempts:            10,
			Window:                 15 * time.Minute,
			EnableIdentityThrottle: true,
			EnableIPThrottle:       false,
		},
		Binding: BindingConfig{
			MaxAttempts:          5,
			DeviceChangeCooldown: 24 * time.Hour,
			MaxDevices:           10,
		},
		Mailer: MailerConfig{
			Enabled:     false,
			From:        "",
			Subject:     "Your verification code",
			QueueSize:   256,
			SendTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode: false,
		},
		Redis: RedisConfig{
			RecordPrefix:  "gvr",
			AccountPrefix: "gva",
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Code
	if c.Code.Digits < 6 || c.Code.Digits > 10 {
		return errors.New("Code Digits must be between 6 and 10")
	}
	if c.Code.TTL <= 0 {
		return errors.New("Code TTL must be > 0")
	}

	// Hash
	if c.Hash.Memory < 8*1024 {
		return errors.New("Hash Memory must be >= 8192 KB")
	}
	if c.Hash.Time < 1 {
		return errors.New("Hash Time must be >= 1")
	}
	if c.Hash.Parallelism < 1 {
		return errors.New("Hash Parallelism must be >= 1")
	}
	if c.Hash.SaltLength < 16 {
		return errors.New("Hash SaltLength must be >= 16")
	}
	if c.Hash.KeyLength < 16 {
		return errors.New("Hash KeyLength must be >= 16")
	}

	// Send limit
	if c.SendLimit.MaxPerWindow <= 0 {
		return errors.New("SendLimit MaxPerWindow must be > 0")
	}
	if c.SendLimit.Window <= 0 {
		return errors.New("SendLimit Window must be > 0")
	}

	// Verify limit
	if c.VerifyLimit.MaxAttempts <= 0 {
		return errors.New("VerifyLimit MaxAttempts must be > 0")
	}
	if c.VerifyLimit.Window <= 0 {
		return errors.New("VerifyLimit Window must be > 0")
	}

	// Binding
	if c.Binding.MaxAttempts <= 0 {
		return errors.New("Binding MaxAttempts must be > 0")
	}
	if c.Binding.DeviceChangeCooldown < 0 {
		return errors.New("Binding DeviceChangeCooldown must be >= 0")
	}
	if c.Binding.MaxDevices < 0 {
		return errors.New("Binding MaxDevices must be >= 0")
	}

	// Mailer
	if c.Mailer.Enabled {
		if c.Mailer.From == "" {
			return errors.New("Mailer From is required when mailer is enabled")
		}
		if c.Mailer.Subject == "" {
			return errors.New("Mailer Subject is required when mailer is enabled")
		}
		if c.Mailer.QueueSize <= 0 {
			return errors.New("Mailer QueueSize must be > 0 when mailer is enabled")
		}
		if c.Mailer.SendTimeout <= 0 {
			return errors.New("Mailer SendTimeout must be > 0 when mailer is enabled")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	// Redis
	if c.Redis.RecordPrefix == "" {
		return errors.New("Redis RecordPrefix must not be empty")
	}
	if c.Redis.AccountPrefix == "" {
		return errors.New("Redis AccountPrefix must not be empty")
	}
	if c.Redis.RecordPrefix == c.Redis.AccountPrefix {
		return errors.New("Redis RecordPrefix and AccountPrefix must differ")
	}

	if c.Security.ProductionMode {
		if c.Code.TTL < 5*time.Minute || c.Code.TTL > 15*time.Minute {
			return errors.New("ProductionMode requires Code TTL between 5m and 15m")
		}
		if c.Binding.MaxAttempts > 5 {
			return errors.New("ProductionMode requires Binding MaxAttempts <= 5")
		}
		if c.Hash.Memory < 64*1024 {
			return errors.New("ProductionMode requires Hash Memory >= 65536 KB")
		}
		if c.Hash.Time < 2 {
			return errors.New("ProductionMode requires Hash Time >= 2")
		}
		if c.Hash.KeyLength < 32 {
			return errors.New("ProductionMode requires Hash KeyLength >= 32")
		}
		if !c.SendLimit.EnableEmailThrottle {
			return errors.New("ProductionMode requires SendLimit EnableEmailThrottle")
		}
		if !c.VerifyLimit.EnableIdentityThrottle {
			return errors.New("ProductionMode requires VerifyLimit EnableIdentityThrottle")
		}
		if c.Binding.DeviceChangeCooldown <= 0 {
			return errors.New("ProductionMode requires Binding DeviceChangeCooldown > 0")
		}
	}

	return nil
}
