// Package stores implements the Redis persistence layer for verification
// records and device-binding account documents.
//
// # Components
//
//   - [VerificationStore] — per-(email,device) code records, binary encoded.
//   - [AccountStore] — per-email device roster documents, JSON encoded.
//   - [BindingStore] — the WATCH-based transaction that consumes a code and
//     mutates the device roster atomically.
//
// # Architecture boundaries
//
// This package owns key layout, record encoding, and transactional writes.
// It does NOT emit audit events or metrics — that responsibility belongs to
// the Engine.
//
// # What this package must NOT do
//
//   - Store or log a plaintext verification code (only the PHC hash).
//   - Import goVerify or any sibling internal package.
//   - Call external services from inside a transaction callback.
package stores
