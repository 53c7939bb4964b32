package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const recordVersionV1 = 1

// retentionGrace pads the Redis TTL past the logical expiry so a record that
// timed out or ran out of attempts is still there to answer with its terminal
// state instead of vanishing into a generic not-found.
const retentionGrace = 5 * time.Minute

var (
	// ErrNotFound is an exported constant or variable used by the verification engine.
	ErrNotFound = errors.New("verification record not found")
	// ErrExpired is an exported constant or variable used by the verification engine.
	ErrExpired = errors.New("verification record expired")
	// ErrCodeMismatch is an exported constant or variable used by the verification engine.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrAttemptsExceeded is an exported constant or variable used by the verification engine.
	ErrAttemptsExceeded = errors.New("verification attempts exceeded")
	// ErrDeviceLimit is an exported constant or variable used by the verification engine.
	ErrDeviceLimit = errors.New("device limit reached")
	// ErrRedisUnavailable is an exported constant or variable used by the verification engine.
	ErrRedisUnavailable = errors.New("verification redis unavailable")
)

// VerificationRecord is the durable form of an issued code. CodeHash is the
// PHC-encoded argon2id hash; the plaintext code never reaches this struct.
type VerificationRecord struct {
	Email     string
	DeviceID  string
	Label     string
	Platform  string
	CodeHash  string
	Attempts  uint16
	CreatedAt int64
	ExpiresAt int64
}

// VerificationStore persists one record per (email, device) identity key.
// Creating a record for a key that already holds one supersedes the old code.
type VerificationStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewVerificationStore creates a record store under the given key prefix.
func NewVerificationStore(redisClient redis.UniversalClient, prefix string) *VerificationStore {
	return &VerificationStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *VerificationStore) key(identityKey string) string {
	return s.prefix + ":" + identityKey
}

// Invalidate removes any outstanding record for the identity key and reports
// whether one existed. Missing keys are not an error; the operation exists so
// a new send always starts from a clean slate even if Create later fails.
func (s *VerificationStore) Invalidate(ctx context.Context, identityKey string) (bool, error) {
	removed, err := s.redis.Del(ctx, s.key(identityKey)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return removed > 0, nil
}

// Create stores the record with the code TTL plus [retentionGrace]. The grace
// keeps the record around after its logical expiry so lookups see Expired or
// AttemptsExceeded rather than NotFound.
func (s *VerificationStore) Create(
	ctx context.Context,
	identityKey string,
	record *VerificationRecord,
	ttl time.Duration,
) error {
	encoded, err := encodeVerificationRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(identityKey), encoded, ttl+retentionGrace).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Lookup returns the newest record for the identity key, or [ErrNotFound].
// One key holds at most one record, so the stored record is always the
// latest-issued one.
func (s *VerificationStore) Lookup(ctx context.Context, identityKey string) (*VerificationRecord, error) {
	data, err := s.redis.Get(ctx, s.key(identityKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return decodeVerificationRecord(data)
}

// Ping checks Redis reachability and reports the round-trip latency.
func (s *VerificationStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// Delete removes the record for the identity key.
func (s *VerificationStore) Delete(ctx context.Context, identityKey string) error {
	if err := s.redis.Del(ctx, s.key(identityKey)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func encodeVerificationRecord(record *VerificationRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	for _, field := range []string{record.Email, record.DeviceID, record.Label, record.Platform, record.CodeHash} {
		if len(field) > 65535 {
			return nil, errors.New("verification record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeVerificationRecord(data []byte) (*VerificationRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordVersionV1 {
		return nil, errors.New("invalid verification record version")
	}

	record := &VerificationRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	for _, field := range []*string{&record.Email, &record.DeviceID, &record.Label, &record.Platform, &record.CodeHash} {
		var fieldLen uint16
		if err := binary.Read(reader, binary.BigEndian, &fieldLen); err != nil {
			return nil, err
		}
		raw := make([]byte, fieldLen)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		*field = string(raw)
	}

	return record, nil
}
