package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// NewVerifier generates a PKCE code verifier: 32 bytes of secure randomness,
// hex encoded (64 characters, all in the unreserved set).
func NewVerifier() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verifier: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Challenge derives the S256 code challenge for a verifier:
// base64url(SHA-256(verifier)) without padding.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
