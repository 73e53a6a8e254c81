package discord

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ranked-tracker/internal/sheet"

	json "github.com/goccy/go-json"
)

const (
	// Colors for Discord embeds
	colorRed    = 15158332 // 0xE74C3C - for losses and key errors
	colorGreen  = 5763719  // 0x57F287 - for wins and recovery
	colorOrange = 15105570 // 0xE67E22 - for warnings

	// Default timeout for webhook requests
	defaultWebhookTimeout = 10 * time.Second

	// Max retries for rate limiting
	maxRetries = 3
)

// WebhookPayload represents a Discord webhook message
type WebhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed represents a Discord embed
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField represents a field in a Discord embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter represents the footer of a Discord embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// NewMatchRecordedPayload summarizes a recorded row
func NewMatchRecordedPayload(row sheet.Row) WebhookPayload {
	color := colorRed
	if row.String(sheet.ColResult) == "Win" {
		color = colorGreen
	}

	role := row.String(sheet.ColMyRole)
	if role == "" {
		role = "Unknown"
	}

	fields := []EmbedField{
		{Name: "KDA", Value: fmt.Sprintf("%s/%s/%s", row.String(sheet.ColKills), row.String(sheet.ColDeaths), row.String(sheet.ColAssists)), Inline: true},
		{Name: "Role", Value: role, Inline: true},
		{Name: "CS", Value: row.String(sheet.ColCS), Inline: true},
	}

	if league := row.String(sheet.ColLeague); league != "" {
		rank := strings.TrimSpace(league + " " + row.String(sheet.ColDivision))
		if lp := row.String(sheet.ColCurrentLP); lp != "" {
			rank += " " + lp + " LP"
		}
		fields = append(fields, EmbedField{Name: "Rank", Value: rank, Inline: true})
	}
	if change, ok := row.Int(sheet.ColLPChange); ok {
		fields = append(fields, EmbedField{Name: "LP Change", Value: fmt.Sprintf("%+d", change), Inline: true})
	}
	if duo := row.String(sheet.ColDuoer); duo != "" {
		fields = append(fields, EmbedField{Name: "Duo", Value: duo, Inline: true})
	}

	return WebhookPayload{
		Embeds: []Embed{
			{
				Title:  fmt.Sprintf("%s: %s", row.String(sheet.ColResult), row.String(sheet.ColChampion)),
				Color:  color,
				Fields: fields,
				Footer: &EmbedFooter{
					Text: row.MatchID,
				},
			},
		},
	}
}

// NewMalformedMatchPayload warns that a match was recorded without roles
func NewMalformedMatchPayload(matchID string, reason error) WebhookPayload {
	return WebhookPayload{
		Embeds: []Embed{
			{
				Title:       "⚠️ Roles Not Resolved",
				Description: reason.Error(),
				Color:       colorOrange,
				Fields: []EmbedField{
					{
						Name:  "Match",
						Value: matchID,
					},
				},
				Footer: &EmbedFooter{
					Text: "Row written without role columns",
				},
			},
		},
	}
}

// NewKeyRejectedPayload creates a payload for API key rejection
func NewKeyRejectedPayload(riotID string, recorded int) WebhookPayload {
	return WebhookPayload{
		Content: "@here API Key Rejected!",
		Embeds: []Embed{
			{
				Title: "🔑 API Key Rejected",
				Color: colorRed,
				Fields: []EmbedField{
					{
						Name:   "Player",
						Value:  riotID,
						Inline: true,
					},
					{
						Name:   "Matches Recorded",
						Value:  formatNumber(recorded),
						Inline: true,
					},
				},
				Footer: &EmbedFooter{
					Text: "Reply with new RGAPI-xxx key to resume tracking",
				},
			},
		},
	}
}

// NewKeyRestoredPayload confirms that tracking resumed with a new key
func NewKeyRestoredPayload(apiKey string, riotID string) WebhookPayload {
	return WebhookPayload{
		Embeds: []Embed{
			{
				Title: "✅ Tracking Resumed",
				Color: colorGreen,
				Fields: []EmbedField{
					{
						Name:   "New Key",
						Value:  maskAPIKey(apiKey) + " (validated)",
						Inline: true,
					},
					{
						Name:   "Player",
						Value:  riotID,
						Inline: true,
					},
				},
			},
		},
	}
}

// WebhookClient sends notifications to Discord webhooks
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookClient creates a new WebhookClient
func NewWebhookClient(webhookURL string) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: defaultWebhookTimeout,
		},
	}
}

// MatchRecorded posts the summary of a recorded row
func (c *WebhookClient) MatchRecorded(ctx context.Context, row sheet.Row) error {
	return c.sendPayload(ctx, NewMatchRecordedPayload(row))
}

// MalformedMatch posts a warning for a match whose roles could not be resolved
func (c *WebhookClient) MalformedMatch(ctx context.Context, matchID string, reason error) error {
	return c.sendPayload(ctx, NewMalformedMatchPayload(matchID, reason))
}

// KeyRejected posts a key rejection alert
func (c *WebhookClient) KeyRejected(ctx context.Context, riotID string, recorded int) error {
	return c.sendPayload(ctx, NewKeyRejectedPayload(riotID, recorded))
}

// KeyRestored posts that tracking resumed with a new key
func (c *WebhookClient) KeyRestored(ctx context.Context, apiKey, riotID string) error {
	return c.sendPayload(ctx, NewKeyRestoredPayload(apiKey, riotID))
}

// sendPayload sends a webhook payload with retry on rate limiting
func (c *WebhookClient) sendPayload(ctx context.Context, payload WebhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		resp.Body.Close()

		// Success - Discord returns 204 No Content
		if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
			return nil
		}

		// Rate limited - wait and retry
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := resp.Header.Get("Retry-After")
			waitDuration := time.Second // Default wait
			if retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					waitDuration = time.Duration(seconds) * time.Second
				}
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		// Other error
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	return fmt.Errorf("webhook request failed after %d retries", maxRetries)
}

// formatNumber formats a number with commas (e.g., 47832 -> "47,832")
func formatNumber(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}

	// Simple comma formatting
	s := strconv.Itoa(n)
	var result bytes.Buffer
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(c)
	}
	return result.String()
}

// maskAPIKey masks an API key for display (e.g., "RGAPI-xxxx-xxxx" -> "RGAPI-...xxxx")
func maskAPIKey(key string) string {
	if len(key) <= 10 {
		return "****"
	}
	return key[:5] + "..." + key[len(key)-4:]
}
