// Package limiters provides the Redis-backed throttles for code sends and
// verify attempts.
//
// # Limiters
//
//   - [SendLimiter] — sliding-window budget on code sends per email + per IP.
//   - [VerifyLimiter] — fixed-window counters on verify calls per identity + per IP.
//
// The send limiter is sliding so the budget recovers continuously; the verify
// limiter is a cheap fixed window because the per-record attempt budget is the
// real ceiling.
//
// # Architecture boundaries
//
// Each limiter owns its own Redis key namespace and error types. Policy
// thresholds come from Config structs supplied at construction time.
//
// # What this package must NOT do
//
//   - Import goVerify or any sibling internal package. The shared internal
//     root (key hashing) is the one allowed dependency.
//   - Make policy decisions beyond counting — the engine decides consequences.
package limiters
