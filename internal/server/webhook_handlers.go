package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsonwriter "github.com/anth0nytran/coaching-site/internal/json"
	"github.com/anth0nytran/coaching-site/internal/log"
	"github.com/anth0nytran/coaching-site/internal/payments"
)

// maxWebhookBody bounds webhook payload reads
const maxWebhookBody = 1 << 20

// StripeWebhookHandler verifies and fulfills Stripe events. On a completed
// checkout: assign the student role and notify the owner channel. An
// unconfigured webhook secret turns the endpoint into an acknowledging
// no-op so Stripe does not retry forever against a half-configured site.
func (s *Server) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if !s.checkout.WebhookConfigured() {
		_ = jsonwriter.Write(w, map[string]bool{"ok": true})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		jsonwriter.WriteBadRequest(w, "invalid")
		return
	}

	event, err := s.checkout.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.LogWarnWithFields("webhook", "Stripe webhook rejected", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteBadRequest(w, "invalid")
		return
	}

	if completed, ok := payments.ParseCompletedCheckout(event); ok {
		s.fulfill(r, completed)
	}

	_ = jsonwriter.Write(w, map[string]bool{"received": true})
}

func (s *Server) fulfill(r *http.Request, completed *payments.CompletedCheckout) {
	ctx := r.Context()

	if completed.DiscordID != "" {
		if err := s.bot.AssignStudentRole(ctx, completed.DiscordID); err != nil {
			// Fulfillment is best-effort; the owner notification below still
			// carries enough to fix it by hand.
			log.LogErrorWithFields("webhook", "Role assignment failed", map[string]any{
				"discordId": completed.DiscordID,
				"error":     err.Error(),
			})
		}
	}

	if err := s.bot.NotifyOwner(ctx, paymentMessage(completed)); err != nil {
		log.LogErrorWithFields("webhook", "Owner notification failed", map[string]any{
			"error": err.Error(),
		})
	}
}

func paymentMessage(completed *payments.CompletedCheckout) string {
	student := completed.Username
	if student == "" {
		student = completed.Name
	}
	if student == "" {
		student = "(unknown)"
	}
	discordID := completed.DiscordID
	if discordID == "" {
		discordID = "no-discord"
	}
	serviceID := completed.ServiceID
	if serviceID == "" {
		serviceID = "?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Payment confirmed\n")
	fmt.Fprintf(&b, "• Student: %s (%s)\n", student, discordID)
	fmt.Fprintf(&b, "• Service: %s\n", serviceID)
	if completed.Email != "" {
		fmt.Fprintf(&b, "• Email: %s\n", completed.Email)
	}
	if !completed.PaidAt.IsZero() {
		fmt.Fprintf(&b, "• Paid at: %s\n", completed.PaidAt.Format(time.RFC3339))
	}
	return b.String()
}

// calendlyPayload is the slice of Calendly's invitee.created payload the
// booking notification needs.
type calendlyPayload struct {
	Payload struct {
		Invitee struct {
			Email string `json:"email"`
		} `json:"invitee"`
		Event struct {
			StartTime string `json:"start_time"`
		} `json:"event"`
		EventType struct {
			Name string `json:"name"`
		} `json:"event_type"`
		QuestionsAndAnswers []struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		} `json:"questions_and_answers"`
	} `json:"payload"`
}

// CalendlyWebhookHandler forwards booking notifications to the owner channel.
func (s *Server) CalendlyWebhookHandler(w http.ResponseWriter, r *http.Request) {
	var payload calendlyPayload
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&payload); err != nil {
		_ = jsonwriter.WriteResponse(w, http.StatusBadRequest, map[string]bool{"ok": false})
		return
	}

	if err := s.bot.NotifyOwner(r.Context(), bookingMessage(payload)); err != nil {
		log.LogErrorWithFields("webhook", "Booking notification failed", map[string]any{
			"error": err.Error(),
		})
		_ = jsonwriter.WriteResponse(w, http.StatusBadRequest, map[string]bool{"ok": false})
		return
	}

	_ = jsonwriter.Write(w, map[string]bool{"ok": true})
}

func bookingMessage(payload calendlyPayload) string {
	p := payload.Payload

	service := p.EventType.Name
	if service == "" {
		service = "?"
	}
	start := p.Event.StartTime
	if start == "" {
		start = "(time?)"
	}
	email := p.Invitee.Email
	if email == "" {
		email = "(email?)"
	}

	var discordID string
	answers := make([]string, 0, len(p.QuestionsAndAnswers))
	for _, qa := range p.QuestionsAndAnswers {
		if discordID == "" && strings.Contains(strings.ToLower(qa.Question), "discord") {
			discordID = qa.Answer
		}
		answers = append(answers, qa.Question+": "+qa.Answer)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Booking scheduled\n")
	fmt.Fprintf(&b, "• Service: %s\n", service)
	fmt.Fprintf(&b, "• Time: %s\n", start)
	fmt.Fprintf(&b, "• Invitee: %s\n", email)
	if discordID != "" {
		fmt.Fprintf(&b, "• Discord: %s\n", discordID)
	}
	if len(answers) > 0 {
		fmt.Fprintf(&b, "• Answers: %s", strings.Join(answers, " | "))
	}
	return b.String()
}
