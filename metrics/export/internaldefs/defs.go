package internaldefs

import (
	goVerify "github.com/MrEthical07/goVerify"
)

// CounterDef defines a public type used by goVerify APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goVerify.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goVerify APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goVerify.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the verification engine.
var CounterDefs = []CounterDef{
	{ID: goVerify.MetricSendSuccess, Name: "goverify_send_success_total", Help: "Successful code sends."},
	{ID: goVerify.MetricSendFailure, Name: "goverify_send_failure_total", Help: "Failed code sends."},
	{ID: goVerify.MetricSendRateLimited, Name: "goverify_send_rate_limited_total", Help: "Rate-limited code sends."},
	{ID: goVerify.MetricSendSuperseded, Name: "goverify_send_superseded_total", Help: "Sends that replaced an outstanding code."},
	{ID: goVerify.MetricVerifySuccess, Name: "goverify_verify_success_total", Help: "Successful verifications."},
	{ID: goVerify.MetricVerifyFailure, Name: "goverify_verify_failure_total", Help: "Failed verifications."},
	{ID: goVerify.MetricVerifyRateLimited, Name: "goverify_verify_rate_limited_total", Help: "Rate-limited verify calls."},
	{ID: goVerify.MetricCodeExpired, Name: "goverify_code_expired_total", Help: "Verify calls against an expired code."},
	{ID: goVerify.MetricCodeMismatch, Name: "goverify_code_mismatch_total", Help: "Verify calls with a wrong code."},
	{ID: goVerify.MetricAttemptsExceeded, Name: "goverify_attempts_exceeded_total", Help: "Verify calls against an exhausted code."},
	{ID: goVerify.MetricDeviceBound, Name: "goverify_device_bound_total", Help: "New devices bound to accounts."},
	{ID: goVerify.MetricDeviceRebound, Name: "goverify_device_rebound_total", Help: "Re-verifications of already-bound devices."},
	{ID: goVerify.MetricDeviceChangeThrottled, Name: "goverify_device_change_throttled_total", Help: "New-device binds rejected by the cooldown."},
	{ID: goVerify.MetricDeviceLimitExceeded, Name: "goverify_device_limit_exceeded_total", Help: "New-device binds rejected by the roster cap."},
	{ID: goVerify.MetricIdentityCreated, Name: "goverify_identity_created_total", Help: "Identities provisioned on first verification."},
	{ID: goVerify.MetricMailEnqueued, Name: "goverify_mail_enqueued_total", Help: "Mail messages handed to the dispatcher."},
	{ID: goVerify.MetricMailDropped, Name: "goverify_mail_dropped_total", Help: "Mail messages dropped by a full queue."},
	{ID: goVerify.MetricRateLimitHit, Name: "goverify_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

// HistogramDefs is an exported constant or variable used by the verification engine.
var HistogramDefs = []HistogramDef{
	{ID: goVerify.MetricVerifyLatency, Name: "goverify_verify_latency_seconds", Help: "Verify latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the verification engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the verification engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
