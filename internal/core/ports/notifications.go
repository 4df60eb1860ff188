package ports

import (
	"context"

	"github.com/openclass/lms-client/internal/core/domain"
)

// NotificationSync maintains the unread count and notification list for
// the current identity. Notifications are a student-only feature: every
// operation is a no-op while there is no identity or the identity is an
// admin, and eligibility is rechecked on every cycle, not just at start.
type NotificationSync interface {
	// Start launches the background poll loop; it runs until Stop or ctx
	// cancellation. Safe to call once per instance.
	Start(ctx context.Context)
	Stop()

	// SetPanelOpen records whether the notification panel is visible.
	// A closed→open transition refetches the full list; while open, count
	// polling is suppressed.
	SetPanelOpen(ctx context.Context, open bool)

	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error

	Unread() int
	Notifications() []domain.UserNotification
}
