package auth

import (
	"regexp"
	"testing"
)

func TestNewVerifier(t *testing.T) {
	verifier, err := NewVerifier()
	if err != nil {
		t.Fatalf("failed to generate verifier: %v", err)
	}

	if len(verifier) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(verifier))
	}

	if !regexp.MustCompile(`^[0-9a-f]+$`).MatchString(verifier) {
		t.Errorf("verifier contains characters outside the hex set: %q", verifier)
	}

	other, _ := NewVerifier()
	if verifier == other {
		t.Error("two verifiers should not collide")
	}
}

func TestChallenge(t *testing.T) {
	// base64url(SHA-256("test")) without padding
	want := "n4bQgYhMfWWaL-qgxVrQFaO_TxsrC4Is0V1sFbDwCgg"
	if got := Challenge("test"); got != want {
		t.Errorf("Challenge(test) = %q, want %q", got, want)
	}

	if got := Challenge("test"); len(got) != 43 {
		t.Errorf("unpadded S256 challenge should be 43 characters, got %d", len(got))
	}
}
