package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
		t.Errorf("hash should start with $2a$ or $2b$, got: %s", hash)
	}

	if hash == "password123" {
		t.Error("hash must never equal the plaintext")
	}
}

func TestHashPassword_UniquePerCall(t *testing.T) {
	hash1, _ := HashPassword("password123")
	hash2, _ := HashPassword("password123")

	if hash1 == hash2 {
		t.Error("hashes should be unique due to random salt")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct password", "password123", true},
		{"wrong password", "wrongpassword", false},
		{"empty password", "", false},
		{"similar password", "password124", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(tt.password, hash); got != tt.want {
				t.Errorf("VerifyPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	// A broken stored hash must report a mismatch, never panic.
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not a hash", "not-a-hash"},
		{"truncated", "$2a$10$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword("password", tt.hash) {
				t.Error("malformed hash should never verify")
			}
		})
	}
}
