package config

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.False(t, cfg.OAuthConfigured())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("SESSION_SECRET", "super-secret")
	t.Setenv("DISCORD_CLIENT_ID", "client-123")
	t.Setenv("DISCORD_REDIRECT_URI", "https://example.com/api/auth/callback")
	t.Setenv("STRIPE_PRICE_MAP", `{"starter":"price_123","pro":"price_456"}`)
	t.Setenv("CHECKOUT_BYPASS", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, Secret("super-secret"), cfg.SessionSecret)
	assert.True(t, cfg.OAuthConfigured())
	assert.Equal(t, "price_123", cfg.PriceMap["starter"])
	assert.True(t, cfg.CheckoutBypass)
}

func TestLoadRejectsInvalidPriceMap(t *testing.T) {
	t.Setenv("STRIPE_PRICE_MAP", "not-json")

	_, err := Load()
	assert.Error(t, err)
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "***", s.String())
	assert.Equal(t, "***", fmt.Sprintf("%v", s))
	assert.Equal(t, "", Secret("").String())

	data, err := json.Marshal(struct {
		Token Secret `json:"token"`
	}{Token: s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"***"}`, string(data))
}

func TestCalendlyURLFor(t *testing.T) {
	cfg := Config{CalendlyURLs: JSONMap{
		"starter":         "https://calendly.com/coach/starter",
		"1_on_1_coaching": "https://calendly.com/coach/1on1",
	}}

	assert.Equal(t, "https://calendly.com/coach/starter", cfg.CalendlyURLFor("starter"))
	assert.Equal(t, "https://calendly.com/coach/1on1", cfg.CalendlyURLFor("1-on-1 Coaching"))
	assert.Empty(t, cfg.CalendlyURLFor("unknown"))
}
