package goVerify

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"digits too small", func(c *Config) { c.Code.Digits = 5 }},
		{"digits too large", func(c *Config) { c.Code.Digits = 11 }},
		{"zero ttl", func(c *Config) { c.Code.TTL = 0 }},
		{"hash memory too low", func(c *Config) { c.Hash.Memory = 1024 }},
		{"hash time zero", func(c *Config) { c.Hash.Time = 0 }},
		{"hash parallelism zero", func(c *Config) { c.Hash.Parallelism = 0 }},
		{"salt too short", func(c *Config) { c.Hash.SaltLength = 8 }},
		{"key too short", func(c *Config) { c.Hash.KeyLength = 8 }},
		{"send window zero", func(c *Config) { c.SendLimit.Window = 0 }},
		{"send max zero", func(c *Config) { c.SendLimit.MaxPerWindow = 0 }},
		{"verify window zero", func(c *Config) { c.VerifyLimit.Window = 0 }},
		{"verify max zero", func(c *Config) { c.VerifyLimit.MaxAttempts = 0 }},
		{"binding attempts zero", func(c *Config) { c.Binding.MaxAttempts = 0 }},
		{"negative cooldown", func(c *Config) { c.Binding.DeviceChangeCooldown = -time.Hour }},
		{"negative device cap", func(c *Config) { c.Binding.MaxDevices = -1 }},
		{"mailer enabled without from", func(c *Config) { c.Mailer.Enabled = true; c.Mailer.From = "" }},
		{"audit buffer zero", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
		{"empty record prefix", func(c *Config) { c.Redis.RecordPrefix = "" }},
		{"empty account prefix", func(c *Config) { c.Redis.AccountPrefix = "" }},
		{"colliding prefixes", func(c *Config) { c.Redis.AccountPrefix = c.Redis.RecordPrefix }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation to fail")
			}
		})
	}
}

func TestConfigProductionMode(t *testing.T) {
	base := func() Config {
		cfg := DefaultConfig()
		cfg.Security.ProductionMode = true
		return cfg
	}

	hardened := base()
	if err := hardened.Validate(); err != nil {
		t.Fatalf("hardened defaults must pass production validation: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ttl too long", func(c *Config) { c.Code.TTL = 30 * time.Minute }},
		{"ttl too short", func(c *Config) { c.Code.TTL = time.Minute }},
		{"attempt budget too generous", func(c *Config) { c.Binding.MaxAttempts = 20 }},
		{"weak hash memory", func(c *Config) { c.Hash.Memory = 16 * 1024 }},
		{"weak hash time", func(c *Config) { c.Hash.Time = 1 }},
		{"short key", func(c *Config) { c.Hash.KeyLength = 16 }},
		{"email throttle disabled", func(c *Config) { c.SendLimit.EnableEmailThrottle = false }},
		{"identity throttle disabled", func(c *Config) { c.VerifyLimit.EnableIdentityThrottle = false }},
		{"no device cooldown", func(c *Config) { c.Binding.DeviceChangeCooldown = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected production validation to fail")
			}
		})
	}
}
