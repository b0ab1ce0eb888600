package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password is shorter than the minimum length")
	ErrPasswordMismatch = errors.New("password mismatch")
)

const (
	// MinPasswordLength is enforced before any hashing happens
	MinPasswordLength = 8

	// bcryptCost trades hashing latency against brute-force resistance
	bcryptCost = 12
)

// HashPassword derives a bcrypt hash from a plaintext password,
// rejecting passwords below the length policy.
func HashPassword(password string) (string, error) {
	if !IsPasswordValid(password) {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a stored hash against a login attempt.
func VerifyPassword(hashedPassword, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// IsPasswordValid reports whether the password meets the length policy.
func IsPasswordValid(password string) bool {
	return len(password) >= MinPasswordLength
}
