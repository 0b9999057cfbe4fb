// Package notify delivers push-style notifications (invites, game updates) to users.
// Delivery is best effort: callers hand a Notification over and move on; failures are logged
// and never reach the request that triggered them.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Notification is one message for one user.
type Notification struct {
	UID   string            `json:"uid"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier only logs notifications. Used when no Redis instance is configured.
type LogNotifier struct{}

// Notify writes the notification to the application log.
func (LogNotifier) Notify(_ context.Context, n Notification) error {
	log.Info().Str("uid", n.UID).Str("title", n.Title).Msg(n.Body)
	return nil
}
