package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SlackConfig configures the Slack incoming webhook.
type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// SlackNotifier posts alerts as Block Kit messages.
type SlackNotifier struct {
	hook *webhook
}

// NewSlackNotifier limits delivery to 1 request/s with no burst, matching the
// incoming webhook quota.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		hook: newWebhook("slack", config.WebhookURL, config.Timeout, NewRateLimiter(1.0, 1)),
	}
}

// SlackWebhookPayload is the JSON body of an incoming webhook call.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Fields   []SlackTextObject `json:"fields,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject is a Block Kit text object.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block Kit limits.
const (
	maxSectionTextLength = 3000
	maxFieldTextLength   = 2000
	maxSectionFields     = 10
	maxFallbackLength    = 150

	slackTruncationSuffix = "..."
)

var slackSeverityIcon = map[Severity]string{
	SeverityInfo:     ":information_source:",
	SeverityWarning:  ":warning:",
	SeverityCritical: ":rotating_light:",
}

func (s *SlackNotifier) buildPayload(a Alert) SlackWebhookPayload {
	severity := a.Severity
	if severity == "" {
		severity = SeverityWarning
	}

	fallback := truncate(fmt.Sprintf("[%s] %s", strings.ToUpper(string(severity)), a.Title),
		maxFallbackLength, slackTruncationSuffix)

	text := fmt.Sprintf("%s *%s*", slackSeverityIcon[severity], a.Title)
	if a.Message != "" {
		text += "\n\n" + a.Message
	}
	blocks := []SlackBlock{{
		Type: "section",
		Text: &SlackTextObject{Type: "mrkdwn", Text: truncate(text, maxSectionTextLength, slackTruncationSuffix)},
	}}

	if len(a.Fields) > 0 {
		fields := make([]SlackTextObject, 0, min(len(a.Fields), maxSectionFields))
		for _, f := range a.Fields[:min(len(a.Fields), maxSectionFields)] {
			fields = append(fields, SlackTextObject{
				Type: "mrkdwn",
				Text: truncate(fmt.Sprintf("*%s*\n%s", f.Name, f.Value), maxFieldTextLength, slackTruncationSuffix),
			})
		}
		blocks = append(blocks, SlackBlock{Type: "section", Fields: fields})
	}

	blocks = append(blocks, SlackBlock{
		Type: "context",
		Elements: []SlackTextObject{{
			Type: "mrkdwn",
			Text: fmt.Sprintf("%s • %s", severity, a.timestamp().Format(time.RFC3339)),
		}},
	})

	return SlackWebhookPayload{Text: fallback, Blocks: blocks}
}

// Notify implements Notifier.
func (s *SlackNotifier) Notify(ctx context.Context, alert Alert) error {
	return s.hook.send(ctx, alert.Title, s.buildPayload(alert))
}
