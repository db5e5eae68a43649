package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPINGate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("4321"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword error: %v", err)
	}
	gate := NewPINGate(string(hash))

	if !gate.Enabled() {
		t.Fatalf("expected gate to be enabled")
	}
	if !gate.Authorized("4321") {
		t.Fatalf("expected correct pin to pass")
	}
	for _, pin := range []string{"", "1234", "4321 "} {
		if gate.Authorized(pin) {
			t.Fatalf("pin %q should not pass", pin)
		}
	}
}

func TestPINGate_EmptyHashAuthorizesNobody(t *testing.T) {
	for _, gate := range []*PINGate{NewPINGate(""), NewPINGate("   "), {}, nil} {
		if gate.Enabled() {
			t.Fatalf("expected disabled gate")
		}
		if gate.Authorized("4321") {
			t.Fatalf("disabled gate authorized a pin")
		}
	}
}

func TestHashPIN(t *testing.T) {
	if _, err := HashPIN("123"); err != ErrWeakPIN {
		t.Fatalf("err = %v, want %v", err, ErrWeakPIN)
	}
	hash, err := HashPIN("246810")
	if err != nil {
		t.Fatalf("HashPIN error: %v", err)
	}
	if !NewPINGate(hash).Authorized("246810") {
		t.Fatalf("hashed pin does not verify")
	}
}
