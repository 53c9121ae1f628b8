package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	jsonwriter "github.com/anth0nytran/coaching-site/internal/json"
	"github.com/anth0nytran/coaching-site/internal/log"
)

// leadRequest is a contact capture from the landing page widget.
type leadRequest struct {
	Email    string            `json:"email"`
	Discord  string            `json:"discord"`
	Username string            `json:"username"`
	UTM      map[string]string `json:"utm"`
}

// LeadHandler forwards a lead to the owner's Discord channel.
func (s *Server) LeadHandler(w http.ResponseWriter, r *http.Request) {
	if !s.leadLimiter.Allow() {
		jsonwriter.WriteTooManyRequests(w, "Slow down")
		return
	}

	var lead leadRequest
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		lead = leadRequest{}
	}

	if lead.Email == "" && lead.Discord == "" {
		_ = jsonwriter.WriteResponse(w, http.StatusBadRequest, map[string]bool{"ok": false})
		return
	}

	if err := s.bot.NotifyOwner(r.Context(), leadMessage(lead)); err != nil {
		// The lead is already lost if Discord is down; acknowledge anyway so
		// the widget does not nag the visitor.
		log.LogErrorWithFields("lead", "Lead notification failed", map[string]any{
			"error": err.Error(),
		})
	}

	_ = jsonwriter.Write(w, map[string]bool{"ok": true})
}

func leadMessage(lead leadRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New lead\n")
	if lead.Email != "" {
		fmt.Fprintf(&b, "• Email: %s\n", lead.Email)
	}
	switch {
	case lead.Username != "" && lead.Discord != "":
		fmt.Fprintf(&b, "• Discord: %s (%s)\n", lead.Username, lead.Discord)
	case lead.Username != "":
		fmt.Fprintf(&b, "• Discord: %s\n", lead.Username)
	case lead.Discord != "":
		fmt.Fprintf(&b, "• Discord: %s\n", lead.Discord)
	}
	if source := lead.UTM["utm_source"]; source != "" {
		fmt.Fprintf(&b, "• Source: %s/%s\n", source, lead.UTM["utm_medium"])
	}
	return b.String()
}
