package ports

import (
	"context"

	"github.com/openclass/lms-client/internal/core/domain"
)

// SessionResult is the outcome of a login or register attempt. These
// operations never return a Go error to the view layer — every failure is
// folded into this shape with a display-ready message.
type SessionResult struct {
	Success bool
	Error   string
}

// ProfilePatch is a partial, display-only identity edit. Nil fields are
// left untouched.
type ProfilePatch struct {
	Username  *string
	FirstName *string
	LastName  *string
}

// SessionStore owns the identity lifecycle. State machine:
//
//	Loading ──(bootstrap, no token or refresh failure)──▶ Anonymous
//	Loading ──(bootstrap, refresh success)──────────────▶ Authenticated
//	Anonymous ──(login/register success)────────────────▶ Authenticated
//	Authenticated ──(logout or refresh failure)─────────▶ Anonymous
//
// Loading is left only via Bootstrap, which runs its refresh exactly once
// per process lifetime.
type SessionStore interface {
	Bootstrap(ctx context.Context)
	Login(ctx context.Context, username, password string) SessionResult
	Register(ctx context.Context, username, password, firstName, lastName string) SessionResult
	Logout(ctx context.Context)
	RefreshIdentity(ctx context.Context)
	UpdateLocalProfile(patch ProfilePatch)

	State() domain.SessionState
	Identity() *domain.Identity
}

// IdentitySource is the read-only slice of SessionStore needed by the
// progress cache and notification synchronizer.
type IdentitySource interface {
	Identity() *domain.Identity
}
