package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateState creates a cryptographically random OAuth state nonce.
// 16 bytes (128 bits) of entropy, hex-encoded so it is cookie- and URL-safe.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
