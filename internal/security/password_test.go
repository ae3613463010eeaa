package security_test

import (
	"testing"

	"github.com/taskhub/taskhub/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("password123")

	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "password123" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if err := security.CheckPassword(hash, "password123"); err != nil {
		t.Fatalf("CheckPassword rejected the correct password: %v", err)
	}

	if err := security.CheckPassword(hash, "wrong-password"); err == nil {
		t.Fatalf("CheckPassword accepted a wrong password")
	}
}
