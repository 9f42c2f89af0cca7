// Package notify delivers fire-and-forget member notifications. Delivery
// failures are logged by callers and never roll back a financial mutation.
package notify

import (
	"context"
	"log/slog"
)

// Notifier is the outbound notification sink. Implementations must not
// block on store transactions; callers dispatch after commit.
type Notifier interface {
	Notify(ctx context.Context, memberID, title, message, link string) error
}

// LogNotifier writes notifications to the structured log. It stands in for
// a real mail or push gateway.
type LogNotifier struct{}

// Notify logs the notification.
func (LogNotifier) Notify(ctx context.Context, memberID, title, message, link string) error {
	slog.Info("Notification dispatched",
		"member_id", memberID,
		"title", title,
		"message", message,
		"link", link,
	)
	return nil
}
