// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned when a password does not match its hash.
var ErrMismatch = errors.New("password mismatch")

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// MaxBytes is the longest input bcrypt reads. Longer passwords are truncated
// so that only their first MaxBytes bytes take part in hashing and comparison.
const MaxBytes = 72

// Bcrypt hashes passwords with a fixed work factor.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a hasher. A cost outside bcrypt's range falls back to DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns the bcrypt hash of plain.
func (b *Bcrypt) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(plain), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare checks plain against hash in constant time.
func (b *Bcrypt) Compare(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncate(plain))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return fmt.Errorf("failed to compare password: %w", err)
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > MaxBytes {
		return b[:MaxBytes]
	}
	return b
}
