package goVerify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goVerify/internal/stores"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	RedisAvailable bool
	RedisLatency   time.Duration
}

// Devices describes the devices operation and its observable behavior.
//
// Devices may return an error when input validation, dependency calls, or security checks fail.
// Devices does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Devices(ctx context.Context, email string) ([]Device, error) {
	if e == nil || e.accounts == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	doc, err := e.accounts.Get(ctx, email)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return []Device{}, nil
		}
		return nil, err
	}

	out := make([]Device, 0, len(doc.Devices))
	for _, d := range doc.Devices {
		out = append(out, boundDeviceToPublic(d))
	}

	return out, nil
}

// DeviceChangeAvailableAt describes the devicechangeavailableat operation and its observable behavior.
//
// DeviceChangeAvailableAt may return an error when input validation, dependency calls, or security checks fail.
// DeviceChangeAvailableAt does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) DeviceChangeAvailableAt(ctx context.Context, email string) (time.Time, error) {
	if e == nil || e.accounts == nil {
		return time.Time{}, ErrEngineNotReady
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return time.Time{}, err
	}

	doc, err := e.accounts.Get(ctx, email)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return e.nowTime(), nil
		}
		return time.Time{}, err
	}

	if doc.LastDeviceChangeAt == 0 || e.config.Binding.DeviceChangeCooldown <= 0 {
		return e.nowTime(), nil
	}

	available := time.Unix(doc.LastDeviceChangeAt, 0).Add(e.config.Binding.DeviceChangeCooldown)
	if now := e.nowTime(); available.Before(now) {
		return now, nil
	}
	return available, nil
}

// Health describes the health operation and its observable behavior.
//
// Health may return an error when input validation, dependency calls, or security checks fail.
// Health does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.records == nil {
		return HealthStatus{}
	}

	latency, err := e.records.Ping(ctx)
	return HealthStatus{
		RedisAvailable: err == nil,
		RedisLatency:   latency,
	}
}
