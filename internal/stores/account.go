package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// BoundDevice is one entry in an account's device roster.
type BoundDevice struct {
	DeviceID   string `json:"device_id"`
	Label      string `json:"label,omitempty"`
	Platform   string `json:"platform,omitempty"`
	VerifiedAt int64  `json:"verified_at"`
	CreatedAt  int64  `json:"created_at"`
	LastUsedAt int64  `json:"last_used_at"`
}

// AccountDoc is the per-email binding document. LastDeviceChangeAt anchors
// the rolling device-change cooldown; it advances only when a NEW device is
// bound, never on an idempotent re-bind.
//
// Device rosters are small, variable-length, and read-modify-written inside a
// WATCH transaction, so the document is JSON rather than the fixed binary
// layout used for code records.
type AccountDoc struct {
	Email              string        `json:"email"`
	Devices            []BoundDevice `json:"devices"`
	LastDeviceChangeAt int64         `json:"last_device_change_at"`
}

// Device returns the roster entry for deviceID, if bound.
func (d *AccountDoc) Device(deviceID string) (*BoundDevice, bool) {
	for i := range d.Devices {
		if d.Devices[i].DeviceID == deviceID {
			return &d.Devices[i], true
		}
	}
	return nil, false
}

// AccountStore persists binding documents keyed by normalized email.
type AccountStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewAccountStore creates an account store under the given key prefix.
func NewAccountStore(redisClient redis.UniversalClient, prefix string) *AccountStore {
	return &AccountStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *AccountStore) key(email string) string {
	return s.prefix + ":" + email
}

// Get returns the binding document for email, or [ErrNotFound] when the
// account has never bound a device.
func (s *AccountStore) Get(ctx context.Context, email string) (*AccountDoc, error) {
	data, err := s.redis.Get(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return decodeAccountDoc(data)
}

func encodeAccountDoc(doc *AccountDoc) ([]byte, error) {
	return json.Marshal(doc)
}

func decodeAccountDoc(data []byte) (*AccountDoc, error) {
	doc := &AccountDoc{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.New("invalid account document")
	}
	return doc, nil
}
