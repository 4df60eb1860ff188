package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Identity models the authenticated user as reported by the gateway.
// Every field originates from a verified server payload; the client never
// reconstructs role or blocked status locally.
type Identity struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsBlocked bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName derives the human-readable name shown in the UI: first and
// last name when available, falling back to the username.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if name == "" {
		return i.Username
	}
	return name
}

// IsStudent reports whether this identity is eligible for student-only
// features such as notification sync.
func (i Identity) IsStudent() bool {
	return i.Role == RoleStudent
}

// SessionState is the lifecycle state of the session store.
type SessionState string

const (
	// SessionLoading is the initial state, held until the one-time
	// bootstrap refresh resolves.
	SessionLoading SessionState = "loading"
	// SessionAnonymous means no valid session exists.
	SessionAnonymous SessionState = "anonymous"
	// SessionAuthenticated means a server-verified identity is held.
	SessionAuthenticated SessionState = "authenticated"
)
