// Package goVerify provides an email one-time-code verification engine with
// atomic device binding, Redis-backed code records, sliding-window send
// limits, and a rolling device-change cooldown.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goVerify is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (SendCodeResult, VerifyCodeResult, MetricsSnapshot, etc.).
// All internal coordination — record storage, binding transactions, rate
// limiting, mail dispatch, audit dispatch — lives under internal/ and is
// never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its
//     public API.
//   - Persist, log, or echo a plaintext verification code anywhere. Only the
//     argon2id hash of a code is stored; the plaintext exists in memory and
//     in the outbound mail body.
//   - Import any sub-package that re-imports goVerify (no import cycles).
//
// # Performance contract
//
// SendCode and VerifyCode each perform a bounded number of Redis round-trips.
// Mail delivery is asynchronous and never extends the request path beyond a
// channel enqueue.
package goVerify
