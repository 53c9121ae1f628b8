package payments

import (
	"encoding/json"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// WebhookConfigured reports whether incoming webhooks can be verified.
func (c *Checkout) WebhookConfigured() bool {
	return c.webhookSecret != ""
}

// VerifyWebhook checks the Stripe-Signature header against the raw payload
// and returns the decoded event.
func (c *Checkout) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	if !c.WebhookConfigured() {
		return stripe.Event{}, ErrNotConfigured
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("verifying webhook signature: %w", err)
	}
	return event, nil
}

// CompletedCheckout is the fulfillment-relevant slice of a
// checkout.session.completed event.
type CompletedCheckout struct {
	DiscordID string
	Username  string
	Name      string
	Email     string
	ServiceID string
	PaidAt    time.Time
}

// ParseCompletedCheckout extracts fulfillment data from an event. The second
// return is false for any other event type or an undecodable payload.
func ParseCompletedCheckout(event stripe.Event) (*CompletedCheckout, bool) {
	if event.Type != "checkout.session.completed" {
		return nil, false
	}

	var sess struct {
		Created  int64             `json:"created"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, false
	}

	completed := &CompletedCheckout{
		DiscordID: sess.Metadata["discordId"],
		Username:  sess.Metadata["username"],
		Name:      sess.Metadata["name"],
		Email:     sess.Metadata["email"],
		ServiceID: sess.Metadata["serviceId"],
	}
	if sess.Created > 0 {
		completed.PaidAt = time.Unix(sess.Created, 0).UTC()
	}
	return completed, true
}
