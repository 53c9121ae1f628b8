package config

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// JSONMap is a string map supplied as a single JSON-encoded env var,
// e.g. STRIPE_PRICE_MAP='{"starter":"price_123"}'.
type JSONMap map[string]string

// UnmarshalText implements encoding.TextUnmarshaler for env parsing
func (m *JSONMap) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*m = nil
		return nil
	}
	var parsed map[string]string
	if err := json.Unmarshal(text, &parsed); err != nil {
		return fmt.Errorf("invalid JSON map: %w", err)
	}
	*m = parsed
	return nil
}

// Config holds all service configuration, read from the environment.
//
// Every integration is optional: a missing secret or id silently disables
// the feature it backs rather than failing startup. The site must keep
// serving content when, say, Stripe is not configured yet.
type Config struct {
	Addr    string `env:"ADDR" envDefault:":8080"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	SessionSecret Secret `env:"SESSION_SECRET"`

	DiscordClientID       string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret   Secret `env:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI    string `env:"DISCORD_REDIRECT_URI"`
	DiscordBotToken       Secret `env:"DISCORD_BOT_TOKEN"`
	DiscordGuildID        string `env:"DISCORD_GUILD_ID"`
	DiscordStudentRoleID  string `env:"DISCORD_STUDENT_ROLE_ID"`
	DiscordOwnerChannelID string `env:"DISCORD_OWNER_CHANNEL_ID"`

	StripeSecretKey     Secret  `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret Secret  `env:"STRIPE_WEBHOOK_SECRET"`
	PriceMap            JSONMap `env:"STRIPE_PRICE_MAP"`

	CalendlyURLs   JSONMap `env:"CALENDLY_URL_MAP"`
	CheckoutBypass bool    `env:"CHECKOUT_BYPASS"`

	VideosFile     string `env:"VIDEOS_FILE" envDefault:"data/videos.json"`
	CredentialsDir string `env:"CREDENTIALS_DIR" envDefault:"public/credentials"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// OAuthConfigured reports whether the login flow can run at all.
func (c Config) OAuthConfigured() bool {
	return c.DiscordClientID != "" && c.DiscordRedirectURI != ""
}

var serviceIDNormalizer = regexp.MustCompile(`[^a-z0-9]+`)

// CalendlyURLFor resolves the booking URL configured for a service id.
// Service ids are normalized so "1-on-1 Coaching" and "1_on_1_coaching"
// share an entry.
func (c Config) CalendlyURLFor(serviceID string) string {
	if url, ok := c.CalendlyURLs[serviceID]; ok {
		return url
	}
	normalized := serviceIDNormalizer.ReplaceAllString(strings.ToLower(serviceID), "_")
	return c.CalendlyURLs[normalized]
}
