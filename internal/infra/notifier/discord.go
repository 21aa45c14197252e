package notifier

import (
	"context"
	"time"
)

// DiscordConfig configures the Discord webhook.
type DiscordConfig struct {
	// WebhookURL includes the authentication token.
	WebhookURL string
	Timeout    time.Duration
}

// DiscordNotifier posts alerts as embeds.
type DiscordNotifier struct {
	hook *webhook
}

// NewDiscordNotifier limits delivery to 0.5 requests/s with a burst of 3
// (Discord allows 30 webhook calls per minute).
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		hook: newWebhook("discord", config.WebhookURL, config.Timeout, NewRateLimiter(0.5, 3)),
	}
}

// DiscordWebhookPayload is the JSON body of a webhook call.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is a single embed.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      DiscordEmbedFooter  `json:"footer"`
	Timestamp   string              `json:"timestamp"`
}

// DiscordEmbedField is a name/value pair rendered inline.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbedFooter is the footer of an embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// Embed limits.
const (
	maxEmbedTitleLength       = 256
	maxEmbedDescriptionLength = 4096
	maxEmbedFields            = 25
	maxEmbedFieldNameLength   = 256
	maxEmbedFieldValueLength  = 1024

	discordTruncationSuffix = "..."
)

var discordSeverityColor = map[Severity]int{
	SeverityInfo:     0x3498DB,
	SeverityWarning:  0xF1C40F,
	SeverityCritical: 0xE74C3C,
}

func (d *DiscordNotifier) buildPayload(a Alert) DiscordWebhookPayload {
	severity := a.Severity
	if severity == "" {
		severity = SeverityWarning
	}

	embed := DiscordEmbed{
		Title:       truncate(a.Title, maxEmbedTitleLength, discordTruncationSuffix),
		Description: truncate(a.Message, maxEmbedDescriptionLength, discordTruncationSuffix),
		Color:       discordSeverityColor[severity],
		Footer:      DiscordEmbedFooter{Text: string(severity)},
		Timestamp:   a.timestamp().Format(time.RFC3339),
	}
	for _, f := range a.Fields[:min(len(a.Fields), maxEmbedFields)] {
		embed.Fields = append(embed.Fields, DiscordEmbedField{
			Name:   truncate(f.Name, maxEmbedFieldNameLength, discordTruncationSuffix),
			Value:  truncate(f.Value, maxEmbedFieldValueLength, discordTruncationSuffix),
			Inline: true,
		})
	}
	return DiscordWebhookPayload{Embeds: []DiscordEmbed{embed}}
}

// Notify implements Notifier.
func (d *DiscordNotifier) Notify(ctx context.Context, alert Alert) error {
	return d.hook.send(ctx, alert.Title, d.buildPayload(alert))
}
