// Package notify tells chat channels how a benchmarking session ended.
package notify

import (
	"context"
	"errors"
)

// Notifier delivers a plain text message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Multi sends every message to all of its notifiers. Delivery continues past
// a failing target; the failures are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromWebhooks builds a notifier for every non-empty webhook URL. It returns
// nil when nothing is configured.
func FromWebhooks(slackURL, discordURL string) Notifier {
	var m Multi
	if slackURL != "" {
		m = append(m, NewSlackNotifier(slackURL))
	}
	if discordURL != "" {
		m = append(m, NewDiscordNotifier(discordURL))
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}
