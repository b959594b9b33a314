// Package auth holds the two security primitives of the application:
// bcrypt password hashing and JWT session tokens.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword creates a bcrypt hash of the plaintext password.
//
// bcrypt generates a fresh random salt on every call, so hashing the
// same password twice yields two different strings. The salt is encoded
// inside the hash itself — no separate column needed.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth.HashPassword: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
//
// The comparison is constant-time inside bcrypt. A malformed or empty
// hash simply reports false — verification never panics and never leaks
// why the match failed.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
