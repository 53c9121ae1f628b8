package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/anth0nytran/coaching-site/internal/cookie"
	"github.com/anth0nytran/coaching-site/internal/crypto"
	"github.com/anth0nytran/coaching-site/internal/log"
)

// DefaultTTL is how long a login session cookie stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Session is the identity carried in the signed session cookie. There is no
// server-side record behind it; the cookie is the whole session.
type Session struct {
	DiscordID string `json:"discordId"`
	Username  string `json:"username,omitempty"`
}

// Manager issues and reads signed session cookies.
type Manager struct {
	signer crypto.Signer
}

// NewManager creates a session manager backed by the given signer.
func NewManager(signer crypto.Signer) Manager {
	return Manager{signer: signer}
}

// Enabled reports whether sessions can be issued at all.
func (m Manager) Enabled() bool {
	return m.signer.Enabled()
}

// Open serializes the session, signs it, and writes the session cookie.
// A no-op when signing is disabled: the operator misconfigured the secret,
// which must never surface to the end user.
func (m Manager) Open(w http.ResponseWriter, sess Session, ttl time.Duration) {
	raw, err := json.Marshal(sess)
	if err != nil {
		log.LogErrorWithFields("session", "Failed to marshal session", map[string]any{
			"error": err.Error(),
		})
		return
	}

	// Cookie values cannot carry raw JSON (quotes and commas are stripped by
	// net/http), so the payload travels base64url-encoded.
	token, ok := m.signer.Sign(base64.RawURLEncoding.EncodeToString(raw))
	if !ok {
		return
	}

	cookie.Set(w, cookie.SessionCookie, token, ttl)
}

// Read verifies and decodes the session cookie. Returns nil on any failure:
// missing cookie, bad signature, malformed payload. A tampered or stale
// cookie is simply "not logged in".
func (m Manager) Read(r *http.Request) *Session {
	token := cookie.Get(r, cookie.SessionCookie)
	if token == "" {
		return nil
	}

	encoded, ok := m.signer.Verify(token)
	if !ok {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil
	}
	if sess.DiscordID == "" {
		return nil
	}
	return &sess
}

// Close clears the session cookie.
func (m Manager) Close(w http.ResponseWriter) {
	cookie.Clear(w, cookie.SessionCookie)
}
