package stores

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStoreRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func sampleRecord(now time.Time) *VerificationRecord {
	return &VerificationRecord{
		Email:     "user@example.com",
		DeviceID:  "dev-1",
		Label:     "Pixel 9",
		Platform:  "android",
		CodeHash:  "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		Attempts:  2,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(10 * time.Minute).Unix(),
	}
}

func TestVerificationRecordCodecRoundtrip(t *testing.T) {
	record := sampleRecord(time.Now())

	data, err := encodeVerificationRecord(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := decodeVerificationRecord(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if *decoded != *record {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", decoded, record)
	}
}

func TestVerificationRecordCodecRejectsCorrupt(t *testing.T) {
	record := sampleRecord(time.Now())
	data, err := encodeVerificationRecord(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	cases := [][]byte{
		nil,
		{},
		{2},
		data[:8],
		append(bytes.Clone(data[:1]), 0xFF),
	}
	for i, corrupt := range cases {
		if _, err := decodeVerificationRecord(corrupt); err == nil {
			t.Fatalf("case %d: expected decode to fail", i)
		}
	}
}

func TestVerificationStoreCreateLookup(t *testing.T) {
	store := NewVerificationStore(newStoreRedis(t), "gvr")
	ctx := context.Background()
	record := sampleRecord(time.Now())

	if err := store.Create(ctx, "key-1", record, 10*time.Minute); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Lookup(ctx, "key-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.CodeHash != record.CodeHash || got.Attempts != record.Attempts {
		t.Fatalf("lookup mismatch: %+v", got)
	}

	if _, err := store.Lookup(ctx, "key-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerificationStoreRetainsExpiredRecord(t *testing.T) {
	client := newStoreRedis(t)
	store := NewVerificationStore(client, "gvr")
	ctx := context.Background()

	ttl := 10 * time.Minute
	if err := store.Create(ctx, "key-1", sampleRecord(time.Now()), ttl); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// The key must outlive the code so the caller can still distinguish an
	// expired or exhausted record from one that never existed.
	got, err := client.TTL(ctx, store.key("key-1")).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if got <= ttl {
		t.Fatalf("expected the Redis TTL to exceed the code TTL %s, got %s", ttl, got)
	}
	if got > ttl+retentionGrace {
		t.Fatalf("TTL %s exceeds the retention grace", got)
	}
}

func TestVerificationStoreInvalidate(t *testing.T) {
	store := NewVerificationStore(newStoreRedis(t), "gvr")
	ctx := context.Background()

	existed, err := store.Invalidate(ctx, "key-1")
	if err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if existed {
		t.Fatalf("nothing to invalidate yet")
	}

	if err := store.Create(ctx, "key-1", sampleRecord(time.Now()), time.Minute); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	existed, err = store.Invalidate(ctx, "key-1")
	if err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if !existed {
		t.Fatalf("expected the record to be removed")
	}

	if _, err := store.Lookup(ctx, "key-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after invalidation, got %v", err)
	}
}
