package ports

import (
	"context"

	"github.com/openclass/lms-client/internal/core/domain"
)

// RegisterInput carries all data needed to create a new account.
// Validated client-side before any network call; the gateway re-validates
// server-side and its verdict wins.
type RegisterInput struct {
	Username  string `validate:"required,min=3,max=150"`
	Password  string `validate:"required,min=8"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
}

// AuthPayload is returned by the gateway on successful login or
// registration: both tokens plus the server's view of the user. User may
// be nil when the endpoint returns tokens only.
type AuthPayload struct {
	Access  string
	Refresh string
	User    *domain.Identity
}

// ProgressSnapshot is the server-authoritative completed-item record.
type ProgressSnapshot struct {
	CompletedVideos []int64
	CompletedTasks  []int64
}

// Gateway is the consumed REST surface of the remote LMS API. It is the
// source of truth for every role and entitlement decision; this module
// only caches what it returns. Authorized calls read the bearer token
// from the configured token store on every request.
type Gateway interface {
	Login(ctx context.Context, username, password string) (*AuthPayload, error)
	Register(ctx context.Context, in RegisterInput) (*AuthPayload, error)
	Me(ctx context.Context) (*domain.Identity, error)

	UnreadCount(ctx context.Context) (int, error)
	MyNotifications(ctx context.Context) ([]domain.UserNotification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error

	MyProgress(ctx context.Context) (*ProgressSnapshot, error)
	CompleteVideo(ctx context.Context, id int64) error
	CompleteTask(ctx context.Context, id int64) error

	// Ping reports whether the gateway host is reachable at all; any HTTP
	// response counts as reachable. Used by readiness probes only.
	Ping(ctx context.Context) error
}
