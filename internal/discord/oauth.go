package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// User represents the subset of Discord's /users/@me response the site
// cares about: a stable id and a cosmetic display name.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// IdentityProvider abstracts the OAuth identity provider so handlers can be
// tested against a fake.
type IdentityProvider interface {
	// AuthURL generates the authorization URL for the OAuth flow.
	AuthURL(state string) string

	// ExchangeCode exchanges an authorization code for tokens.
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchUser fetches the authenticated user's identity.
	FetchUser(ctx context.Context, token *oauth2.Token) (*User, error)
}

// Provider implements IdentityProvider against Discord's OAuth2 API.
type Provider struct {
	config     oauth2.Config
	apiBaseURL string // defaults to https://discord.com/api, overridden in tests
}

// NewProvider creates a Discord OAuth provider.
func NewProvider(clientID, clientSecret, redirectURI string) *Provider {
	return &Provider{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"identify"},
			Endpoint:     endpoints.Discord,
		},
		apiBaseURL: "https://discord.com/api",
	}
}

// NewProviderWithEndpoints creates a provider against custom endpoints,
// for tests that stand in for Discord with an httptest server.
func NewProviderWithEndpoints(clientID, clientSecret, redirectURI string, endpoint oauth2.Endpoint, apiBaseURL string) *Provider {
	p := NewProvider(clientID, clientSecret, redirectURI)
	p.config.Endpoint = endpoint
	p.apiBaseURL = apiBaseURL
	return p
}

// AuthURL generates the authorization URL. The consent prompt is forced so
// returning users see which scopes they are granting.
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))
}

// ExchangeCode exchanges an authorization code for tokens.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.config.Exchange(ctx, code)
}

// FetchUser fetches the user's identity from Discord's API.
func (p *Provider) FetchUser(ctx context.Context, token *oauth2.Token) (*User, error) {
	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.apiBaseURL + "/users/@me")
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user: status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("user response missing id")
	}

	return &user, nil
}
