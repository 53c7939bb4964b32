package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownError reports a new-device bind rejected by the rolling
// device-change cooldown, with the wait remaining.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("device change cooldown active, %s remaining", e.Remaining)
}

// BindRequest carries everything the binding transaction needs. VerifyCode
// must be pure: the transaction body can run more than once under WATCH
// contention, so the callback must have no side effects.
type BindRequest struct {
	IdentityKey string
	Email       string
	DeviceID    string
	Code        string
	VerifyCode  func(code, encodedHash string) (bool, error)
	MaxAttempts int
	Cooldown    time.Duration
	MaxDevices  int
	Now         time.Time
}

// BindResult is returned on a successful bind.
type BindResult struct {
	Device    BoundDevice
	NewDevice bool
}

// BindingStore runs the verify-and-bind transaction over a record key and an
// account key.
type BindingStore struct {
	redis    redis.UniversalClient
	records  *VerificationStore
	accounts *AccountStore
}

// NewBindingStore creates a binding store over the given record and account
// stores. All three must share the same Redis client.
func NewBindingStore(
	redisClient redis.UniversalClient,
	records *VerificationStore,
	accounts *AccountStore,
) *BindingStore {
	return &BindingStore{
		redis:    redisClient,
		records:  records,
		accounts: accounts,
	}
}

// Bind atomically consumes a matching code and updates the device roster.
//
// Under concurrent verifies of the same record, WATCH conflicts force all but
// one transaction to retry; the retrying transaction then observes the record
// gone and fails with [ErrNotFound], so exactly one caller succeeds.
//
// Outcomes:
//   - record missing: [ErrNotFound]
//   - record past expiry: record deleted, [ErrExpired]
//   - attempt budget already spent: no write, [ErrAttemptsExceeded]
//     (the record stays until its TTL reclaims it)
//   - code mismatch: attempts incremented in place, [ErrCodeMismatch]
//   - new device inside the cooldown: no write, [*CooldownError]
//   - match: roster updated, record deleted, one commit
func (s *BindingStore) Bind(ctx context.Context, req BindRequest) (*BindResult, error) {
	const maxRetries = 4

	recordKey := s.records.key(req.IdentityKey)
	accountKey := s.accounts.key(req.Email)

	for i := 0; i < maxRetries; i++ {
		var result *BindResult

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, recordKey).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeVerificationRecord(data)
			if err != nil {
				return err
			}

			now := req.Now
			if now.Unix() > record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, recordKey)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrExpired
			}

			if int(record.Attempts) >= req.MaxAttempts {
				return ErrAttemptsExceeded
			}

			ok, err := req.VerifyCode(req.Code, record.CodeHash)
			if err != nil {
				return err
			}
			if !ok {
				record.Attempts++

				ttl := time.Duration(record.ExpiresAt-now.Unix()) * time.Second
				if ttl <= 0 {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, recordKey)
						return nil
					})
					if err != nil {
						return err
					}
					return ErrExpired
				}

				updated, err := encodeVerificationRecord(record)
				if err != nil {
					return err
				}

				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, recordKey, updated, ttl+retentionGrace)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrCodeMismatch
			}

			accountData, err := tx.Get(ctx, accountKey).Bytes()
			var doc *AccountDoc
			switch {
			case err == nil:
				doc, err = decodeAccountDoc(accountData)
				if err != nil {
					return err
				}
			case errors.Is(err, redis.Nil):
				doc = &AccountDoc{Email: req.Email}
			default:
				return err
			}

			nowUnix := now.Unix()
			if existing, found := doc.Device(req.DeviceID); found {
				// Idempotent re-bind: refresh timestamps, leave the cooldown
				// anchor untouched.
				existing.VerifiedAt = nowUnix
				existing.LastUsedAt = nowUnix
				result = &BindResult{Device: *existing, NewDevice: false}
			} else {
				if req.Cooldown > 0 && doc.LastDeviceChangeAt > 0 {
					elapsed := now.Sub(time.Unix(doc.LastDeviceChangeAt, 0))
					if elapsed < req.Cooldown {
						return &CooldownError{Remaining: req.Cooldown - elapsed}
					}
				}
				if req.MaxDevices > 0 && len(doc.Devices) >= req.MaxDevices {
					return ErrDeviceLimit
				}

				device := BoundDevice{
					DeviceID:   req.DeviceID,
					Label:      record.Label,
					Platform:   record.Platform,
					VerifiedAt: nowUnix,
					CreatedAt:  nowUnix,
					LastUsedAt: nowUnix,
				}
				doc.Devices = append(doc.Devices, device)
				doc.LastDeviceChangeAt = nowUnix
				result = &BindResult{Device: device, NewDevice: true}
			}

			encoded, err := encodeAccountDoc(doc)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, recordKey)
				pipe.Set(ctx, accountKey, encoded, 0)
				return nil
			})
			return err
		}, recordKey, accountKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			var cooldown *CooldownError
			switch {
			case errors.Is(err, redis.Nil):
				return nil, ErrNotFound
			case errors.Is(err, ErrExpired),
				errors.Is(err, ErrCodeMismatch),
				errors.Is(err, ErrAttemptsExceeded),
				errors.Is(err, ErrDeviceLimit):
				return nil, err
			case errors.As(err, &cooldown):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}

		return result, nil
	}

	return nil, ErrNotFound
}
