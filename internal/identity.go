package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

// IdentityKey derives the stable record key for an email+device pair:
// lowercase hex SHA-256 of "email|deviceID". The email must already be
// normalized by the caller.
func IdentityKey(email, deviceID string) string {
	sum := sha256.Sum256([]byte(email + "|" + deviceID))
	return hex.EncodeToString(sum[:])
}

// HashBindingValue hashes an opaque binding signal (for example a client IP)
// so limiter keys never store the raw value.
func HashBindingValue(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
