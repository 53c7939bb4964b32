package goVerify

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDevicesEmptyForUnknownAccount(t *testing.T) {
	engine, _, _ := newTestEngineWith(t, testConfig())

	devices, err := engine.Devices(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("expected no devices, got %d", len(devices))
	}
}

func TestDevicesAfterBind(t *testing.T) {
	engine, mail, _ := newTestEngineWith(t, testConfig())
	ctx := context.Background()

	code := sendAndCapture(t, engine, mail, "user@example.com", "dev-1")
	if _, err := engine.VerifyCode(ctx, VerifyCodeRequest{
		Email:    "user@example.com",
		DeviceID: "dev-1",
		Code:     code,
	}); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}

	devices, err := engine.Devices(ctx, "USER@example.com")
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected one device, got %d", len(devices))
	}
	if devices[0].DeviceID != "dev-1" {
		t.Fatalf("expected dev-1, got %q", devices[0].DeviceID)
	}
	if devices[0].VerifiedAt.IsZero() {
		t.Fatalf("expected a verification timestamp")
	}
}

func TestDevicesRejectsBadEmail(t *testing.T) {
	engine, _, _ := newTestEngineWith(t, testConfig())

	if _, err := engine.Devices(context.Background(), "not-an-email"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestDeviceChangeAvailableAt(t *testing.T) {
	clock := newFakeClock(time.Now())
	engine, mail, _ := newTestEngineWith(t, testConfig(), func(b *Builder) {
		b.WithClock(clock.Now)
	})
	ctx := context.Background()

	// Unknown accounts can change devices immediately.
	at, err := engine.DeviceChangeAvailableAt(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("DeviceChangeAvailableAt failed: %v", err)
	}
	if at.After(clock.Now()) {
		t.Fatalf("expected immediate availability, got %s", at)
	}

	code := sendAndCapture(t, engine, mail, "user@example.com", "dev-1")
	if _, err := engine.VerifyCode(ctx, VerifyCodeRequest{
		Email:    "user@example.com",
		DeviceID: "dev-1",
		Code:     code,
	}); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}

	at, err = engine.DeviceChangeAvailableAt(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("DeviceChangeAvailableAt failed: %v", err)
	}
	want := clock.Now().Add(24 * time.Hour)
	if diff := at.Sub(want); diff < -time.Second || diff > time.Second {
		t.Fatalf("expected availability near %s, got %s", want, at)
	}

	clock.Advance(25 * time.Hour)
	at, err = engine.DeviceChangeAvailableAt(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("DeviceChangeAvailableAt failed: %v", err)
	}
	if at.After(clock.Now()) {
		t.Fatalf("expected availability now after the cooldown, got %s", at)
	}
}

func TestHealth(t *testing.T) {
	mr, rdb := newTestRedis(t)
	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithIdentityProvider(newMemoryIdentityProvider()).
		WithMailer(newTestMailer()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if status := engine.Health(context.Background()); !status.RedisAvailable {
		t.Fatalf("expected redis to be reachable")
	}

	mr.Close()

	if status := engine.Health(context.Background()); status.RedisAvailable {
		t.Fatalf("expected redis to be unreachable after shutdown")
	}
}

func TestSecurityReport(t *testing.T) {
	cfg := testConfig()
	cfg.Security.ProductionMode = false
	engine, _, _ := newTestEngineWith(t, cfg)

	report := engine.SecurityReport()
	if report.CodeDigits != 6 {
		t.Fatalf("expected 6 digits, got %d", report.CodeDigits)
	}
	if report.CodeTTL != 10*time.Minute {
		t.Fatalf("expected 10m ttl, got %s", report.CodeTTL)
	}
	if !report.SendThrottleActive {
		t.Fatalf("expected send throttling to be reported active")
	}
	if report.AttemptBudget != cfg.Binding.MaxAttempts {
		t.Fatalf("expected attempt budget %d, got %d", cfg.Binding.MaxAttempts, report.AttemptBudget)
	}
	if !report.DeviceCooldownActive || report.DeviceCooldown != 24*time.Hour {
		t.Fatalf("expected a 24h device cooldown, got %+v", report)
	}
	if !report.MailDeliveryEnabled {
		t.Fatalf("expected mail delivery to be reported enabled")
	}
}
