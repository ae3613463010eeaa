package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub/internal/auth"
)

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	userID := uuid.NewString()

	token, err := m.GenerateAccessToken(userID, "sam@example.com")

	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := m.VerifyAccessToken(token)

	if err != nil {
		t.Fatalf("VerifyAccessToken failed: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("got userID %q, want %q", claims.UserID, userID)
	}

	if claims.Email != "sam@example.com" {
		t.Fatalf("got email %q, want sam@example.com", claims.Email)
	}
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	issuer := auth.NewManager("secret-a", time.Hour)
	verifier := auth.NewManager("secret-b", time.Hour)

	token, err := issuer.GenerateAccessToken(uuid.NewString(), "sam@example.com")

	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := verifier.VerifyAccessToken(token); err == nil {
		t.Fatalf("expected verification to fail with the wrong secret")
	}
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	m := auth.NewManager("test-secret", -time.Minute)

	token, err := m.GenerateAccessToken(uuid.NewString(), "sam@example.com")

	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := m.VerifyAccessToken(token); err == nil {
		t.Fatalf("expected verification to fail for an expired token")
	}
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	if _, err := m.VerifyAccessToken("not-a-jwt"); err == nil {
		t.Fatalf("expected verification to fail for garbage input")
	}
}
