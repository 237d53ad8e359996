package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ResetSecretBytes is the entropy of a password-reset secret.
// Hex-encoded it is 64 characters long.
const ResetSecretBytes = 32

// SessionIDBytes is the entropy of a reset session identifier.
const SessionIDBytes = 16

// RandomHex returns n cryptographically random bytes encoded as lower-case
// hex (2n characters).
//
// Example usage:
//
//	secret, err := utils.RandomHex(utils.ResetSecretBytes)
func RandomHex(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random byte count must be positive")
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error reading random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a reset secret.
// Only this digest is persisted; lookups hash the presented secret again.
//
// Example usage:
//
//	tokenHash := utils.HashToken(secretFromLink)
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
