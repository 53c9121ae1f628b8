package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	jsonwriter "github.com/anth0nytran/coaching-site/internal/json"
	"github.com/anth0nytran/coaching-site/internal/log"
	"github.com/anth0nytran/coaching-site/internal/payments"
)

func bypassRequested(r *http.Request) bool {
	v := strings.ToLower(r.URL.Query().Get("bypass"))
	return v == "1" || v == "true"
}

// CheckoutHandler creates a Stripe Checkout session for a service and
// returns the hosted payment URL. The session identity, when present, is
// attached server-side so fulfillment can reach the buyer on Discord.
func (s *Server) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req payments.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An unreadable body is treated as an empty request; the serviceId
		// check below produces the client-facing error.
		req = payments.Request{}
	}

	if req.ServiceID == "" {
		jsonwriter.WriteBadRequest(w, "Missing serviceId")
		return
	}

	if bypassRequested(r) {
		req.Bypass = true
	}

	if sess := s.sessions.Read(r); sess != nil {
		req.DiscordID = sess.DiscordID
		req.Username = sess.Username
	}

	url, err := s.checkout.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrUnknownService):
			jsonwriter.WriteBadRequest(w, "Unknown serviceId")
		case errors.Is(err, payments.ErrNotConfigured):
			jsonwriter.WriteBadRequest(w, "Checkout is not configured")
		default:
			log.LogErrorWithFields("checkout", "Checkout session creation failed", map[string]any{
				"serviceId": req.ServiceID,
				"error":     err.Error(),
			})
			jsonwriter.WriteInternalServerError(w, "Checkout failed")
		}
		return
	}

	_ = jsonwriter.Write(w, map[string]string{"url": url})
}

// ConfirmResponse is the checkout confirmation payload for the success page.
type ConfirmResponse struct {
	OK          bool            `json:"ok"`
	Customer    ConfirmCustomer `json:"customer"`
	ServiceID   string          `json:"serviceId,omitempty"`
	OrderNumber string          `json:"orderNumber,omitempty"`
}

// ConfirmCustomer carries the buyer details Stripe collected.
type ConfirmCustomer struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// CheckoutConfirmHandler reports whether a checkout session was paid.
func (s *Server) CheckoutConfirmHandler(w http.ResponseWriter, r *http.Request) {
	if bypassRequested(r) {
		_ = jsonwriter.Write(w, ConfirmResponse{
			OK:          true,
			ServiceID:   r.URL.Query().Get("serviceId"),
			OrderNumber: "TEST-BYPASS",
		})
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		_ = jsonwriter.WriteResponse(w, http.StatusBadRequest, ConfirmResponse{})
		return
	}

	conf, err := s.checkout.Confirm(r.Context(), sessionID)
	if err != nil {
		log.LogErrorWithFields("checkout", "Checkout confirmation failed", map[string]any{
			"error": err.Error(),
		})
		_ = jsonwriter.WriteResponse(w, http.StatusInternalServerError, ConfirmResponse{})
		return
	}

	_ = jsonwriter.Write(w, ConfirmResponse{
		OK:          conf.Paid,
		Customer:    ConfirmCustomer{Email: conf.Email, Name: conf.Name},
		ServiceID:   conf.ServiceID,
		OrderNumber: conf.OrderNumber,
	})
}
