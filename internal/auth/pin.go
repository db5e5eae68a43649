// Package auth gates cancellation and admin operations behind a shared PIN.
package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPINLen = 4

var ErrWeakPIN = errors.New("pin must be at least 4 characters")

// PINGate checks a presented PIN against a bcrypt hash. The zero value, or a
// gate built from an empty hash, authorizes nobody.
type PINGate struct {
	hash []byte
}

func NewPINGate(hash string) *PINGate {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return &PINGate{}
	}
	return &PINGate{hash: []byte(hash)}
}

// Enabled reports whether any PIN can pass the gate.
func (g *PINGate) Enabled() bool {
	return g != nil && len(g.hash) > 0
}

func (g *PINGate) Authorized(pin string) bool {
	if !g.Enabled() || pin == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(pin)) == nil
}

// HashPIN returns the value to store in admin.pin_hash.
func HashPIN(pin string) (string, error) {
	if len(pin) < minPINLen {
		return "", ErrWeakPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
