package auth

import (
	"strings"
	"testing"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	signed := Sign("user-42")

	value, err := Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if value != "user-42" {
		t.Errorf("Expected 'user-42', got %q", value)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	signed := Sign("user-42")
	_, sig, _ := strings.Cut(signed, "|")

	// Same signature, different value.
	forged := Sign("user-43")
	forgedValue, _, _ := strings.Cut(forged, "|")
	if _, err := Verify(forgedValue + "|" + sig); err == nil {
		t.Error("Expected error for mismatched signature, got nil")
	}

	if _, err := Verify("no-separator"); err == nil {
		t.Error("Expected error for malformed cookie, got nil")
	}
	if _, err := Verify("!!!|" + sig); err == nil {
		t.Error("Expected error for invalid encoding, got nil")
	}
}
