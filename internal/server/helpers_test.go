package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	stripe "github.com/stripe/stripe-go/v81"
	"golang.org/x/oauth2"

	"github.com/anth0nytran/coaching-site/internal/config"
	"github.com/anth0nytran/coaching-site/internal/content"
	"github.com/anth0nytran/coaching-site/internal/crypto"
	"github.com/anth0nytran/coaching-site/internal/discord"
	"github.com/anth0nytran/coaching-site/internal/payments"
	"github.com/anth0nytran/coaching-site/internal/session"
)

// fakeProvider is a stand-in identity provider for handler tests.
type fakeProvider struct {
	token        *oauth2.Token
	exchangeErr  error
	user         *discord.User
	fetchUserErr error
}

func (f *fakeProvider) AuthURL(state string) string {
	return "https://discord.example.com/oauth2/authorize?state=" + state
}

func (f *fakeProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if f.token != nil {
		return f.token, nil
	}
	return &oauth2.Token{AccessToken: "t1"}, nil
}

func (f *fakeProvider) FetchUser(ctx context.Context, token *oauth2.Token) (*discord.User, error) {
	if f.fetchUserErr != nil {
		return nil, f.fetchUserErr
	}
	if f.user != nil {
		return f.user, nil
	}
	return &discord.User{ID: "u123", Username: "Bob"}, nil
}

// fakeBot records bot calls
type fakeBot struct {
	roleAssigned  []string
	notifications []string
	member        bool
	assignErr     error
	notifyErr     error
}

func (f *fakeBot) AssignStudentRole(ctx context.Context, userID string) error {
	f.roleAssigned = append(f.roleAssigned, userID)
	return f.assignErr
}

func (f *fakeBot) NotifyOwner(ctx context.Context, content string) error {
	f.notifications = append(f.notifications, content)
	return f.notifyErr
}

func (f *fakeBot) IsGuildMember(ctx context.Context, userID string) bool {
	return f.member
}

// fakeCheckout records checkout calls
type fakeCheckout struct {
	createReq  *payments.Request
	createURL  string
	createErr  error
	confirm    *payments.Confirmation
	confirmErr error

	webhookConfigured bool
	event             stripe.Event
	verifyErr         error
}

func (f *fakeCheckout) Create(ctx context.Context, req payments.Request) (string, error) {
	f.createReq = &req
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.createURL != "" {
		return f.createURL, nil
	}
	return "https://checkout.stripe.com/pay/cs_test_1", nil
}

func (f *fakeCheckout) Confirm(ctx context.Context, sessionID string) (*payments.Confirmation, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	if f.confirm != nil {
		return f.confirm, nil
	}
	return nil, errors.New("no confirmation configured")
}

func (f *fakeCheckout) WebhookConfigured() bool {
	return f.webhookConfigured
}

func (f *fakeCheckout) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	if f.verifyErr != nil {
		return stripe.Event{}, f.verifyErr
	}
	return f.event, nil
}

// testServer bundles a Server with its fakes
type testServer struct {
	*Server
	provider *fakeProvider
	bot      *fakeBot
	checkout *fakeCheckout
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	provider := &fakeProvider{}
	bot := &fakeBot{}
	checkout := &fakeCheckout{}

	cfg := config.Config{
		BaseURL:            "https://example.com",
		DiscordClientID:    "client-123",
		DiscordRedirectURI: "https://example.com/api/auth/callback",
	}
	sessions := session.NewManager(crypto.NewSigner("test-secret"))
	catalog := content.NewCatalog("", "")

	return &testServer{
		Server:   New(cfg, sessions, provider, bot, checkout, catalog),
		provider: provider,
		bot:      bot,
		checkout: checkout,
	}
}

func sessionFor(id, username string) session.Session {
	return session.Session{DiscordID: id, Username: username}
}

// carryCookies copies surviving cookies from a response recorder onto a
// request, simulating a browser following a redirect.
func carryCookies(rec *httptest.ResponseRecorder, r *http.Request) {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
}

// cookieByName finds a cookie in a recorded response
func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
