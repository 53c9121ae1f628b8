package session

import (
	"net/http"
	"time"

	"github.com/anth0nytran/coaching-site/internal/cookie"
	"github.com/anth0nytran/coaching-site/internal/crypto"
)

// StateTTL bounds how long an OAuth handshake attempt can stay open.
const StateTTL = 600 * time.Second

// StateManager persists the anti-CSRF state nonce and the post-login return
// destination across the provider redirect, each in its own short-lived
// cookie.
type StateManager struct{}

// Issue mints a random state nonce, stores it and returnTo as cookies, and
// returns the nonce for inclusion in the provider authorization URL.
func (StateManager) Issue(w http.ResponseWriter, returnTo string) (string, error) {
	state, err := crypto.GenerateState()
	if err != nil {
		return "", err
	}

	cookie.Set(w, cookie.OAuthStateCookie, state, StateTTL)
	if returnTo != "" {
		cookie.Set(w, cookie.OAuthReturnCookie, returnTo, StateTTL)
	}
	return state, nil
}

// Consume reads the stored state and return destination without clearing
// them. Clearing is a separate step so the callback handler can clear
// unconditionally on every exit path.
func (StateManager) Consume(r *http.Request) (state, returnTo string) {
	return cookie.Get(r, cookie.OAuthStateCookie), cookie.Get(r, cookie.OAuthReturnCookie)
}

// Clear expires both handshake cookies.
func (StateManager) Clear(w http.ResponseWriter) {
	cookie.Clear(w, cookie.OAuthStateCookie)
	cookie.Clear(w, cookie.OAuthReturnCookie)
}
