package util

import "testing"

func TestHashPasswordDeterministic(t *testing.T) {
	SetJWTSecret("secret1")
	h1 := HashPassword("password")
	h2 := HashPassword("password")
	if h1 != h2 {
		t.Fatalf("expected same hash for same secret, got %s vs %s", h1, h2)
	}
}

func TestHashPasswordDifferentSecrets(t *testing.T) {
	SetJWTSecret("secretA")
	h1 := HashPassword("password")
	SetJWTSecret("secretB")
	h2 := HashPassword("password")
	if h1 == h2 {
		t.Fatalf("expected different hashes for different secrets, both %s", h1)
	}
}

func TestHashPasswordWithSaltRoundTrip(t *testing.T) {
	SetJWTSecret("round-trip-secret")

	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	if salt == "" {
		t.Fatal("expected non-empty salt")
	}

	hashed := HashPasswordWithSalt("s3cret-pass", salt)
	ok, err := VerifyPassword("s3cret-pass", hashed, salt)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify against its own hash")
	}

	ok, err = VerifyPassword("wrong-pass", hashed, salt)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail verification")
	}
}

func TestVerifyPasswordLegacyHash(t *testing.T) {
	SetJWTSecret("legacy-secret")

	// Accounts created before salting stored HashPassword output with no salt.
	legacy := HashPassword("old-pass")
	ok, err := VerifyPassword("old-pass", legacy, "")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !ok {
		t.Fatal("expected legacy unsalted hash to verify")
	}
}

func TestGenerateSaltUnique(t *testing.T) {
	s1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	s2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	if s1 == s2 {
		t.Fatal("expected two generated salts to differ")
	}
}
