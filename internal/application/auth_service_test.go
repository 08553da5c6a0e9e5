package application

import (
	"context"
	"errors"
	"testing"
)

var testArgon2idParams = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("s3cret", testArgon2idParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := VerifyPassword(hash, "s3cret"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "guess"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := VerifyPassword("$bcrypt$whatever", "s3cret"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
	}
	if err := VerifyPassword("$argon2id$v=1$m=1,t=1,p=1$c2FsdA$a2V5", "s3cret"); !errors.Is(err, ErrIncompatiblePasswordVersion) {
		t.Fatalf("expected ErrIncompatiblePasswordVersion, got %v", err)
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected empty password to be rejected")
	}
}

func TestAuthenticator(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("s3cret", testArgon2idParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	auth := NewAuthenticator("planner", hash)
	ctx := context.Background()

	if !auth.Enabled() {
		t.Fatalf("expected authenticator to be enabled")
	}
	if err := auth.Authenticate(ctx, "planner", "s3cret"); err != nil {
		t.Fatalf("expected valid credentials, got %v", err)
	}
	if err := auth.Authenticate(ctx, "planner", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if err := auth.Authenticate(ctx, "intruder", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong user, got %v", err)
	}

	open := NewAuthenticator("", "")
	if open.Enabled() || open.Authenticate(ctx, "", "") != nil {
		t.Fatalf("expected disabled authenticator to accept everything")
	}
}
