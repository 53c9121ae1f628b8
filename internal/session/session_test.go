package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anth0nytran/coaching-site/internal/cookie"
	"github.com/anth0nytran/coaching-site/internal/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestWithCookies builds a request carrying the cookies a recorder wrote,
// the way a browser would replay them on the next request.
func requestWithCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || (c.Value == "" && c.MaxAge <= 0) {
			continue
		}
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return r
}

func TestOpenReadRoundTrip(t *testing.T) {
	m := NewManager(crypto.NewSigner("test-secret"))

	tests := []struct {
		name string
		sess Session
	}{
		{"with_username", Session{DiscordID: "u123", Username: "Bob"}},
		{"without_username", Session{DiscordID: "u456"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.Open(rec, tt.sess, DefaultTTL)

			got := m.Read(requestWithCookies(t, rec))
			require.NotNil(t, got)
			assert.Equal(t, tt.sess, *got)
		})
	}
}

func TestOpenSetsSessionCookieTTL(t *testing.T) {
	m := NewManager(crypto.NewSigner("test-secret"))

	rec := httptest.NewRecorder()
	m.Open(rec, Session{DiscordID: "u123"}, DefaultTTL)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookie.SessionCookie, cookies[0].Name)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
}

func TestReadRejectsTamperedCookie(t *testing.T) {
	m := NewManager(crypto.NewSigner("test-secret"))

	rec := httptest.NewRecorder()
	m.Open(rec, Session{DiscordID: "u123", Username: "Bob"}, DefaultTTL)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	tampered := strings.Replace(cookies[0].Value, cookies[0].Value[:1], "x", 1)
	if tampered == cookies[0].Value {
		tampered = "y" + cookies[0].Value[1:]
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: cookie.SessionCookie, Value: tampered})
	assert.Nil(t, m.Read(r))
}

func TestReadRejectsForeignSecret(t *testing.T) {
	rec := httptest.NewRecorder()
	NewManager(crypto.NewSigner("secret-a")).Open(rec, Session{DiscordID: "u123"}, DefaultTTL)

	m := NewManager(crypto.NewSigner("secret-b"))
	assert.Nil(t, m.Read(requestWithCookies(t, rec)))
}

func TestReadMissingCookie(t *testing.T) {
	m := NewManager(crypto.NewSigner("test-secret"))
	assert.Nil(t, m.Read(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestDisabledSignerIsSilent(t *testing.T) {
	m := NewManager(crypto.NewSigner(""))
	assert.False(t, m.Enabled())

	rec := httptest.NewRecorder()
	m.Open(rec, Session{DiscordID: "u123"}, DefaultTTL)
	assert.Empty(t, rec.Result().Cookies(), "no cookie should be written without a secret")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: cookie.SessionCookie, Value: "anything.deadbeef"})
	assert.Nil(t, m.Read(r))
}

func TestCloseClearsSessionCookie(t *testing.T) {
	m := NewManager(crypto.NewSigner("test-secret"))

	rec := httptest.NewRecorder()
	m.Close(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookie.SessionCookie, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)

	// A cleared cookie no longer reads back
	assert.Nil(t, m.Read(requestWithCookies(t, rec)))
}

func TestStateIssueConsume(t *testing.T) {
	var sm StateManager

	rec := httptest.NewRecorder()
	state, err := sm.Issue(rec, "/checkout?serviceId=abc")
	require.NoError(t, err)
	assert.Len(t, state, 32)

	gotState, gotReturn := sm.Consume(requestWithCookies(t, rec))
	assert.Equal(t, state, gotState)
	assert.Equal(t, "/checkout?serviceId=abc", gotReturn)

	// Consume has no side effects: reading again yields the same values
	gotState2, gotReturn2 := sm.Consume(requestWithCookies(t, rec))
	assert.Equal(t, gotState, gotState2)
	assert.Equal(t, gotReturn, gotReturn2)
}

func TestStateIssueWithoutReturnTo(t *testing.T) {
	var sm StateManager

	rec := httptest.NewRecorder()
	state, err := sm.Issue(rec, "")
	require.NoError(t, err)
	assert.NotEmpty(t, state)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1, "no return cookie without a returnTo")
	assert.Equal(t, cookie.OAuthStateCookie, cookies[0].Name)
	assert.Equal(t, 600, cookies[0].MaxAge)
}

func TestStateClearEndsHandshake(t *testing.T) {
	var sm StateManager

	issued := httptest.NewRecorder()
	_, err := sm.Issue(issued, "/somewhere")
	require.NoError(t, err)

	cleared := httptest.NewRecorder()
	sm.Clear(cleared)

	for _, c := range cleared.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}

	// After clearing, a second consume sees nothing
	state, returnTo := sm.Consume(requestWithCookies(t, cleared))
	assert.Empty(t, state)
	assert.Empty(t, returnTo)
}
