package ports

import "context"

// Toast severity levels.
const (
	ToastInfo    = "info"
	ToastSuccess = "success"
	ToastError   = "error"
)

// Alerter surfaces user-facing alerts. Both methods are best-effort and
// must not block: a sound that cannot be played (autoplay restriction,
// missing player binary) is logged by the implementation and swallowed,
// never reported back to the caller.
type Alerter interface {
	Sound(ctx context.Context)
	Toast(ctx context.Context, level, message string)
}
