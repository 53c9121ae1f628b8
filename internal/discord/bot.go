package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/anth0nytran/coaching-site/internal/log"
)

// Bot is a minimal client for the handful of bot-token API calls the
// fulfillment flow needs. Each call silently no-ops when its configuration
// is absent, so a partially configured deployment degrades instead of
// erroring.
type Bot struct {
	token          string
	guildID        string
	studentRoleID  string
	ownerChannelID string
	apiBaseURL     string
	httpClient     *http.Client
}

// BotConfig carries the Discord bot settings.
type BotConfig struct {
	Token          string
	GuildID        string
	StudentRoleID  string
	OwnerChannelID string
}

// NewBot creates a Discord bot client.
func NewBot(cfg BotConfig) *Bot {
	return &Bot{
		token:          cfg.Token,
		guildID:        cfg.GuildID,
		studentRoleID:  cfg.StudentRoleID,
		ownerChannelID: cfg.OwnerChannelID,
		apiBaseURL:     "https://discord.com/api",
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// AssignStudentRole grants the configured student role to a guild member.
func (b *Bot) AssignStudentRole(ctx context.Context, userID string) error {
	if b.token == "" || b.guildID == "" || b.studentRoleID == "" {
		log.LogDebugWithFields("discord", "Role assignment skipped, bot not configured", nil)
		return nil
	}

	url := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", b.apiBaseURL, b.guildID, userID, b.studentRoleID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return fmt.Errorf("building role request: %w", err)
	}

	resp, err := b.do(req)
	if err != nil {
		return fmt.Errorf("assigning role: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("assigning role: status %d", resp.StatusCode)
	}

	log.LogInfoWithFields("discord", "Student role assigned", map[string]any{
		"userID": userID,
	})
	return nil
}

// NotifyOwner posts a message to the configured owner channel.
func (b *Bot) NotifyOwner(ctx context.Context, content string) error {
	if b.token == "" || b.ownerChannelID == "" {
		log.LogDebugWithFields("discord", "Owner notification skipped, bot not configured", nil)
		return nil
	}

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	url := fmt.Sprintf("%s/channels/%s/messages", b.apiBaseURL, b.ownerChannelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sending message: status %d", resp.StatusCode)
	}
	return nil
}

// IsGuildMember reports whether the user belongs to the configured guild.
// An unconfigured bot or an upstream failure reads as "not a member".
func (b *Bot) IsGuildMember(ctx context.Context, userID string) bool {
	if b.token == "" || b.guildID == "" || userID == "" {
		return false
	}

	url := fmt.Sprintf("%s/guilds/%s/members/%s", b.apiBaseURL, b.guildID, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := b.do(req)
	if err != nil {
		log.LogWarnWithFields("discord", "Membership check failed", map[string]any{
			"error": err.Error(),
		})
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (b *Bot) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bot "+b.token)
	return b.httpClient.Do(req)
}
