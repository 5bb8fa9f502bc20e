// internal/auth/session_test.go
package auth

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCreateAndVerifyJWT(t *testing.T) {
	Init()

	userID := uuid.New()
	token, err := CreateJWT(userID, "alice")
	if err != nil {
		t.Fatalf("CreateJWT failed: %v", err)
	}

	identity, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if identity.UserID != userID {
		t.Fatalf("expected user id %v, got %v", userID, identity.UserID)
	}
	if identity.Username != "alice" {
		t.Fatalf("expected username alice, got %q", identity.Username)
	}
}

func TestVerifyBearer(t *testing.T) {
	Init()

	userID := uuid.New()
	token, err := CreateJWT(userID, "bob")
	if err != nil {
		t.Fatalf("CreateJWT failed: %v", err)
	}

	identity, err := VerifyBearer("Bearer " + token)
	if err != nil {
		t.Fatalf("VerifyBearer failed: %v", err)
	}
	if identity.UserID != userID {
		t.Fatalf("expected user id %v, got %v", userID, identity.UserID)
	}

	if _, err := VerifyBearer(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken for empty header, got %v", err)
	}
	if _, err := VerifyBearer(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for missing prefix, got %v", err)
	}
	if _, err := VerifyBearer("Bearer not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage token, got %v", err)
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	Init()

	token, err := CreateJWT(uuid.New(), "carol")
	if err != nil {
		t.Fatalf("CreateJWT failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := VerifyToken(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestVerifyTokenRejectsForeignKey(t *testing.T) {
	Init()
	token, err := CreateJWT(uuid.New(), "dave")
	if err != nil {
		t.Fatalf("CreateJWT failed: %v", err)
	}

	// Re-initializing rotates the key pair; old tokens must stop verifying.
	Init()
	if _, err := VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after key rotation, got %v", err)
	}
}
