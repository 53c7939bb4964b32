package stores

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAccountDocCodecRoundtrip(t *testing.T) {
	now := time.Now().Unix()
	doc := &AccountDoc{
		Email: "user@example.com",
		Devices: []BoundDevice{
			{DeviceID: "dev-1", Label: "Pixel 9", Platform: "android", VerifiedAt: now, CreatedAt: now, LastUsedAt: now},
			{DeviceID: "dev-2", Platform: "ios", VerifiedAt: now + 5, CreatedAt: now + 5, LastUsedAt: now + 5},
		},
		LastDeviceChangeAt: now + 5,
	}

	data, err := encodeAccountDoc(doc)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := decodeAccountDoc(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Email != doc.Email || len(decoded.Devices) != 2 {
		t.Fatalf("roundtrip mismatch: %+v", decoded)
	}
	if decoded.LastDeviceChangeAt != doc.LastDeviceChangeAt {
		t.Fatalf("lost the cooldown anchor")
	}
	if device, ok := decoded.Device("dev-2"); !ok || device.Platform != "ios" {
		t.Fatalf("device lookup failed on decoded doc")
	}
}

func TestAccountDocDeviceLookup(t *testing.T) {
	doc := &AccountDoc{
		Email:   "user@example.com",
		Devices: []BoundDevice{{DeviceID: "dev-1"}},
	}

	if _, ok := doc.Device("dev-9"); ok {
		t.Fatalf("unknown device must not resolve")
	}
	if device, ok := doc.Device("dev-1"); !ok || device.DeviceID != "dev-1" {
		t.Fatalf("expected dev-1 to resolve")
	}
}

func TestAccountStoreGetMissing(t *testing.T) {
	store := NewAccountStore(newStoreRedis(t), "gva")

	if _, err := store.Get(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountDocDecodeRejectsGarbage(t *testing.T) {
	if _, err := decodeAccountDoc([]byte("{not json")); err == nil {
		t.Fatalf("expected decode to fail")
	}
}
