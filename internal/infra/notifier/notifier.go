// Package notifier delivers operational alerts, such as SLO breaches and failed
// background jobs, to chat webhooks. Slack and Discord are supported; a Multi
// fans one alert out to every configured destination.
package notifier

import (
	"context"
	"errors"
	"time"
)

// Severity ranks an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Field is one labelled value shown under the alert message.
type Field struct {
	Name  string
	Value string
}

// Alert is a single operational notification.
type Alert struct {
	Title    string
	Message  string
	Severity Severity
	Fields   []Field
	// Time defaults to the moment of delivery when zero.
	Time time.Time
}

func (a Alert) timestamp() time.Time {
	if a.Time.IsZero() {
		return time.Now().UTC()
	}
	return a.Time.UTC()
}

// Notifier sends alerts. Implementations rate limit and retry internally and
// respect context cancellation.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Multi delivers an alert to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoOpNotifier discards alerts. It is used when no webhook is configured.
type NoOpNotifier struct{}

// Notify implements Notifier.
func (NoOpNotifier) Notify(context.Context, Alert) error { return nil }

// New returns a notifier for the configured webhooks: NoOpNotifier when both
// URLs are empty, the single notifier when one is set, a Multi otherwise.
func New(slackURL, discordURL string, timeout time.Duration) Notifier {
	var out Multi
	if slackURL != "" {
		out = append(out, NewSlackNotifier(SlackConfig{WebhookURL: slackURL, Timeout: timeout}))
	}
	if discordURL != "" {
		out = append(out, NewDiscordNotifier(DiscordConfig{WebhookURL: discordURL, Timeout: timeout}))
	}
	switch len(out) {
	case 0:
		return NoOpNotifier{}
	case 1:
		return out[0]
	}
	return out
}
