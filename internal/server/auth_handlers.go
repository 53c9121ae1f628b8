package server

import (
	"net/http"

	jsonwriter "github.com/anth0nytran/coaching-site/internal/json"
	"github.com/anth0nytran/coaching-site/internal/log"
	"github.com/anth0nytran/coaching-site/internal/session"
)

// LoginHandler starts the Discord OAuth handshake: mint state, persist it
// and the return destination as short-lived cookies, redirect to the
// provider's consent page.
//
// Missing provider configuration redirects straight home; an operator
// mistake is never surfaced to the visitor.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil || !s.cfg.OAuthConfigured() {
		log.LogWarnWithFields("auth", "Login requested but OAuth is not configured", nil)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	returnTo := r.URL.Query().Get("returnTo")
	if returnTo == "" {
		returnTo = "/"
	}

	state, err := s.state.Issue(w, returnTo)
	if err != nil {
		log.LogErrorWithFields("auth", "Failed to issue OAuth state", map[string]any{
			"error": err.Error(),
		})
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	http.Redirect(w, r, s.provider.AuthURL(state), http.StatusFound)
}

// CallbackHandler finishes the handshake: validate state, exchange the code,
// fetch the identity, open a session. Every failure takes the same exit:
// clear the handshake cookies and redirect home, leaking nothing about why
// the attempt failed.
func (s *Server) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		s.failHandshake(w, r, "provider not configured")
		return
	}

	code := r.URL.Query().Get("code")
	stateParam := r.URL.Query().Get("state")
	savedState, returnTo := s.state.Consume(r)

	if code == "" || stateParam == "" || savedState == "" || stateParam != savedState {
		s.failHandshake(w, r, "state mismatch")
		return
	}

	token, err := s.provider.ExchangeCode(r.Context(), code)
	if err != nil || token.AccessToken == "" {
		s.failHandshake(w, r, "code exchange failed")
		return
	}

	user, err := s.provider.FetchUser(r.Context(), token)
	if err != nil {
		s.failHandshake(w, r, "identity fetch failed")
		return
	}

	s.sessions.Open(w, session.Session{
		DiscordID: user.ID,
		Username:  user.Username,
	}, session.DefaultTTL)

	// Success also clears the handshake cookies: state never outlives one
	// attempt.
	s.state.Clear(w)

	if returnTo == "" {
		returnTo = "/"
	}

	log.LogInfoWithFields("auth", "Login completed", map[string]any{
		"discordId": user.ID,
	})
	http.Redirect(w, r, returnTo, http.StatusFound)
}

func (s *Server) failHandshake(w http.ResponseWriter, r *http.Request, reason string) {
	log.LogDebugWithFields("auth", "OAuth handshake failed", map[string]any{
		"reason": reason,
	})
	s.state.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// LogoutHandler clears the session cookie and redirects home.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	s.sessions.Close(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// SessionResponse is the introspection payload other parts of the site
// consume, e.g. for checkout pre-fill.
type SessionResponse struct {
	DiscordID *string `json:"discordId"`
	Username  *string `json:"username"`
}

// SessionHandler reports the current identity, or nulls when logged out.
func (s *Server) SessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Read(r)
	if sess == nil {
		_ = jsonwriter.Write(w, SessionResponse{})
		return
	}

	resp := SessionResponse{DiscordID: &sess.DiscordID}
	if sess.Username != "" {
		resp.Username = &sess.Username
	}
	_ = jsonwriter.Write(w, resp)
}

// MembershipHandler reports whether the logged-in user is in the guild.
// Everything short of a confirmed membership reads as {"member": false}.
func (s *Server) MembershipHandler(w http.ResponseWriter, r *http.Request) {
	member := false
	if sess := s.sessions.Read(r); sess != nil {
		member = s.bot.IsGuildMember(r.Context(), sess.DiscordID)
	}
	_ = jsonwriter.Write(w, map[string]bool{"member": member})
}
