package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/anth0nytran/coaching-site/internal/log"
)

var (
	// ErrNotConfigured means the Stripe integration is missing required config.
	ErrNotConfigured = errors.New("stripe is not configured")

	// ErrUnknownService means the requested service id has no price mapping.
	ErrUnknownService = errors.New("unknown serviceId")
)

// Config carries the Stripe settings and the site-level values checkout
// sessions are built from.
type Config struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	PriceMap      map[string]string
	CalendlyURL   func(serviceID string) string
	Bypass        bool
}

// Checkout creates and confirms Stripe Checkout sessions.
type Checkout struct {
	api           *client.API
	webhookSecret string
	baseURL       string
	priceMap      map[string]string
	calendlyURL   func(serviceID string) string
	bypass        bool
}

// NewCheckout creates the checkout service. A missing secret key leaves the
// service constructed but unconfigured; calls then fail with ErrNotConfigured
// (or succeed through bypass mode).
func NewCheckout(cfg Config) *Checkout {
	c := &Checkout{
		webhookSecret: cfg.WebhookSecret,
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		priceMap:      cfg.PriceMap,
		calendlyURL:   cfg.CalendlyURL,
		bypass:        cfg.Bypass,
	}
	if cfg.CalendlyURL == nil {
		c.calendlyURL = func(string) string { return "" }
	}
	if cfg.SecretKey != "" {
		c.api = client.New(cfg.SecretKey, nil)
	}
	return c
}

// Request is a checkout initiation request from the browser.
type Request struct {
	ServiceID string            `json:"serviceId"`
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Bypass    bool              `json:"bypass"`
	UTM       map[string]string `json:"utm"`

	// DiscordID and Username come from the session, never the client
	DiscordID string `json:"-"`
	Username  string `json:"-"`
}

// Create builds a Stripe Checkout session and returns the hosted payment URL.
func (c *Checkout) Create(ctx context.Context, req Request) (string, error) {
	if req.ServiceID == "" {
		return "", fmt.Errorf("%w: missing serviceId", ErrUnknownService)
	}

	if c.bypass || req.Bypass {
		return c.bypassURL(req.ServiceID), nil
	}

	if c.api == nil || c.baseURL == "" || len(c.priceMap) == 0 {
		return "", ErrNotConfigured
	}

	priceID, ok := c.priceMap[req.ServiceID]
	if !ok {
		return "", ErrUnknownService
	}

	// The price decides whether this is a one-time payment or a subscription
	price, err := c.api.Prices.Get(priceID, &stripe.PriceParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", fmt.Errorf("retrieving price: %w", err)
	}

	mode := stripe.CheckoutSessionModePayment
	if price.Recurring != nil {
		mode = stripe.CheckoutSessionModeSubscription
	}

	params := &stripe.CheckoutSessionParams{
		Params:              stripe.Params{Context: ctx},
		Mode:                stripe.String(string(mode)),
		PaymentMethodTypes:  stripe.StringSlice([]string{"card"}),
		AllowPromotionCodes: stripe.Bool(true),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.baseURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(c.baseURL + "/?canceled=1#services"),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	params.AddMetadata("serviceId", req.ServiceID)
	params.AddMetadata("name", req.Name)
	params.AddMetadata("email", req.Email)
	params.AddMetadata("discordId", req.DiscordID)
	params.AddMetadata("username", req.Username)
	params.AddMetadata("calendlyUrl", c.calendlyURL(req.ServiceID))
	for _, key := range utmKeys {
		params.AddMetadata(key, req.UTM[key])
	}

	// Retries of the same request must not create a second session, while a
	// changed detail (different email, different campaign) must not collide
	// with the previous attempt.
	params.IdempotencyKey = stripe.String(idempotencyKey(req, string(mode)))

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("creating checkout session: %w", err)
	}

	log.LogInfoWithFields("payments", "Checkout session created", map[string]any{
		"serviceId": req.ServiceID,
		"mode":      string(mode),
	})
	return sess.URL, nil
}

// Confirmation is the outcome of a completed (or attempted) checkout.
type Confirmation struct {
	Paid        bool
	Email       string
	Name        string
	ServiceID   string
	OrderNumber string
}

// Confirm retrieves a checkout session and reports whether it was paid.
func (c *Checkout) Confirm(ctx context.Context, sessionID string) (*Confirmation, error) {
	if c.bypass {
		return &Confirmation{Paid: true, OrderNumber: "TEST-BYPASS"}, nil
	}
	if c.api == nil {
		return nil, ErrNotConfigured
	}
	if sessionID == "" {
		return nil, fmt.Errorf("missing session_id")
	}

	sess, err := c.api.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving checkout session: %w", err)
	}

	conf := &Confirmation{
		Paid:        sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		OrderNumber: OrderNumber(sess.ID),
	}
	if sess.CustomerDetails != nil {
		conf.Email = sess.CustomerDetails.Email
		conf.Name = sess.CustomerDetails.Name
	}
	if sess.Metadata != nil {
		conf.ServiceID = sess.Metadata["serviceId"]
	}
	return conf, nil
}

func (c *Checkout) bypassURL(serviceID string) string {
	u := c.baseURL + "/success?session_id=bypass"
	if serviceID != "" {
		u += "&serviceId=" + url.QueryEscape(serviceID)
	}
	return u
}

var utmKeys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// idempotencyKey derives a deterministic key from every variable input of a
// checkout request.
func idempotencyKey(req Request, mode string) string {
	parts := []string{
		req.ServiceID,
		mode,
		orDefault(req.DiscordID, "anon"),
		orDefault(req.Email, "no-email"),
		orDefault(req.Name, "no-name"),
	}
	for _, key := range utmKeys {
		parts = append(parts, orDefault(req.UTM[key], "no-"+strings.TrimPrefix(key, "utm_")))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

var sessionIDPrefix = regexp.MustCompile(`(?i)^cs_[a-z]+_?`)

// OrderNumber derives a short human-readable order reference from a Stripe
// checkout session id.
func OrderNumber(sessionID string) string {
	trimmed := sessionIDPrefix.ReplaceAllString(sessionID, "")
	if len(trimmed) > 8 {
		trimmed = trimmed[len(trimmed)-8:]
	}
	return strings.ToUpper(trimmed)
}
