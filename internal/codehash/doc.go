// Package codehash provides argon2id hashing for one-time verification codes.
//
// Hashes are stored as PHC strings so the work factor travels with the hash
// and can be raised without invalidating outstanding records.
package codehash
