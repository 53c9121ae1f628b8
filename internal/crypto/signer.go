package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Signer produces and verifies HMAC-SHA256 signed tokens of the form
// "<value>.<hex-signature>". The value may itself contain the delimiter;
// the hex signature never does, so Verify splits on the last occurrence.
//
// A Signer with no secret is disabled: Sign and Verify report ok=false for
// every input. Callers treat that as "no session possible", not an error.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer for the given secret. An empty secret yields
// a disabled signer.
func NewSigner(secret string) Signer {
	if secret == "" {
		return Signer{}
	}
	return Signer{secret: []byte(secret)}
}

// Enabled reports whether a signing secret is configured.
func (s Signer) Enabled() bool {
	return len(s.secret) > 0
}

// Sign appends the keyed digest of value to value itself.
func (s Signer) Sign(value string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}
	return value + "." + s.digest(value), true
}

// Verify splits the token on the last delimiter, recomputes the digest over
// the payload, and compares in constant time. Returns the payload only on an
// exact match; malformed input of any shape yields ok=false.
func (s Signer) Verify(token string) (string, bool) {
	if !s.Enabled() || token == "" {
		return "", false
	}

	idx := strings.LastIndex(token, ".")
	if idx <= 0 {
		return "", false
	}

	value := token[:idx]
	sig := token[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(s.digest(value))) {
		return "", false
	}
	return value, true
}

func (s Signer) digest(value string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
