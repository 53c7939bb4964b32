// Package internal holds shared primitives for the verification engine:
// one-time-code generation, identity-key derivation, and the hash used to
// keep raw client signals out of Redis keys.
//
// # What this package must NOT do
//
//   - Import goVerify or any sibling internal package.
//   - Use math/rand for anything secret-bearing.
package internal
