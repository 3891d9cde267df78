package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password signup accepts.
const MinPasswordLen = 6

// ErrWeakPassword is returned by CheckPassword.
var ErrWeakPassword = errors.New("weak password")

// CheckPassword enforces the signup rules: at least MinPasswordLen
// characters and no more than the 72 bytes bcrypt can hash.
func CheckPassword(plain string) error {
	if len([]rune(plain)) < MinPasswordLen {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, MinPasswordLen)
	}
	if len(plain) > 72 {
		return fmt.Errorf("%w: must be at most 72 bytes", ErrWeakPassword)
	}
	return nil
}

// HashPassword returns a bcrypt hash of plain.  A cost outside bcrypt's
// range falls back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the bcrypt hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
