package internal

import (
	"strings"
	"testing"
)

func TestNewOTPShape(t *testing.T) {
	for _, digits := range []int{6, 8, 10} {
		code, err := NewOTP(digits)
		if err != nil {
			t.Fatalf("NewOTP(%d) failed: %v", digits, err)
		}
		if len(code) != digits {
			t.Fatalf("expected %d digits, got %q", digits, code)
		}
		for i := 0; i < len(code); i++ {
			if code[i] < '0' || code[i] > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
	}
}

func TestNewOTPRejectsBadWidth(t *testing.T) {
	for _, digits := range []int{0, 5, 11, -1} {
		if _, err := NewOTP(digits); err == nil {
			t.Fatalf("expected NewOTP(%d) to fail", digits)
		}
	}
}

func TestNewOTPVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		code, err := NewOTP(6)
		if err != nil {
			t.Fatalf("NewOTP failed: %v", err)
		}
		seen[code] = true
	}
	// With a million possible codes, 32 draws colliding into one value
	// would mean a broken generator.
	if len(seen) < 2 {
		t.Fatalf("generator produced a single value across 32 draws")
	}
}

func TestIdentityKeyStable(t *testing.T) {
	a := IdentityKey("user@example.com", "dev-1")
	b := IdentityKey("user@example.com", "dev-1")
	if a != b {
		t.Fatalf("key must be deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestHashBindingValueOpaque(t *testing.T) {
	hashed := HashBindingValue("203.0.113.7")
	if len(hashed) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(hashed))
	}
	if strings.Contains(hashed, "203.0.113.7") {
		t.Fatalf("hash leaks the input")
	}
	if hashed != HashBindingValue("203.0.113.7") {
		t.Fatalf("hash must be deterministic")
	}
	if hashed == HashBindingValue("203.0.113.8") {
		t.Fatalf("distinct inputs collided")
	}
}

func TestIdentityKeySeparatesComponents(t *testing.T) {
	// The separator must prevent ("ab","c") and ("a","bc") from colliding.
	if IdentityKey("ab", "c") == IdentityKey("a", "bc") {
		t.Fatalf("component boundary lost")
	}
	if IdentityKey("user@example.com", "dev-1") == IdentityKey("user@example.com", "dev-2") {
		t.Fatalf("device must contribute to the key")
	}
}
