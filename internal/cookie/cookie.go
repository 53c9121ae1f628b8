package cookie

import (
	"net/http"
	"time"

	"github.com/anth0nytran/coaching-site/internal/log"
)

// Cookie names used across the site
const (
	SessionCookie     = "sid"
	OAuthStateCookie  = "oauth_state"
	OAuthReturnCookie = "oauth_return"
)

// Set writes a cookie with the site-wide security policy: httpOnly so
// scripts cannot exfiltrate it, secure, SameSite=Lax so it survives the
// provider's redirect back but not cross-site form posts.
func Set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})

	log.LogDebugWithFields("cookie", "Cookie set", map[string]any{
		"name":   name,
		"maxAge": maxAge.String(),
	})
}

// Clear removes a cookie by setting MaxAge to -1, keeping the same scope
// attributes so the browser matches the original cookie.
func Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// Get retrieves a cookie value from the request. A missing cookie is
// returned as an empty string.
func Get(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
