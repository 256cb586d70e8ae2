package notification

import (
	"bytes"
	"clanManager/domain"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	colorWarning = 0xFFA500
	colorInfo    = 0x3498DB
	// Discord rejects embeds with more fields than this.
	maxEmbedFields = 25
)

type DiscordConfig struct {
	WebhookURL string
}

type DiscordRepository struct {
	discordConfig DiscordConfig
	client        *http.Client
}

func NewDiscordRepository(cfg DiscordConfig) *DiscordRepository {
	return &DiscordRepository{
		discordConfig: cfg,
		client:        &http.Client{Timeout: 5 * time.Second},
	}
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds"`
}

func (r *DiscordRepository) send(ctx context.Context, embed Embed) error {
	if r.discordConfig.WebhookURL == "" {
		return nil
	}

	payloadByte, err := json.Marshal(webhookPayload{Embeds: []Embed{embed}})
	if err != nil {
		return fmt.Errorf("failed to marshal json payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.discordConfig.WebhookURL, bytes.NewReader(payloadByte))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(res.Body, 512))

	return fmt.Errorf("discord webhook returned negative response %v: %s", res.StatusCode, string(bodyBytes))
}

// SendOutsideBattlesWarning notifies leadership that a member used decks for another clan today.
func (r *DiscordRepository) SendOutsideBattlesWarning(ctx context.Context, name, tag, clanTag string, battles int) error {
	return r.send(ctx, Embed{
		Title: "Battles for another clan",
		Description: fmt.Sprintf("%s (%s) joined %s after using %d deck(s) for another clan since the last reset.",
			name, tag, clanTag, battles),
		Color: colorWarning,
	})
}

// SendStrikeSummary lists the members that received an automated strike.
func (r *DiscordRepository) SendStrikeSummary(ctx context.Context, clanTag string, struck []domain.StrikeNotice) error {
	embed := Embed{
		Title: fmt.Sprintf("Automated strikes for %s", clanTag),
		Color: colorInfo,
	}

	if len(struck) == 0 {
		embed.Description = "No members received a strike this week."
		return r.send(ctx, embed)
	}

	for i, s := range struck {
		if i == maxEmbedFields {
			embed.Description = fmt.Sprintf("%d more not shown", len(struck)-maxEmbedFields)
			break
		}
		embed.Fields = append(embed.Fields, EmbedField{
			Name:   fmt.Sprintf("%s (%s)", s.Name, s.Tag),
			Value:  fmt.Sprintf("%g / %g, strikes: %d", s.Actual, s.Required, s.Strikes),
			Inline: false,
		})
	}

	return r.send(ctx, embed)
}
