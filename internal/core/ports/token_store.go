package ports

import "context"

// Fixed storage keys for the two session tokens. Every TokenStore
// implementation persists under these names.
const (
	TokenKeyAccess  = "access"
	TokenKeyRefresh = "refresh"
)

// TokenPair is the access/refresh token pair. Tokens are opaque strings;
// the client never inspects them.
type TokenPair struct {
	Access  string
	Refresh string
}

// Empty reports whether no access token is held. An empty pair means the
// session store may settle to anonymous without a network call.
func (p TokenPair) Empty() bool {
	return p.Access == ""
}

// TokenStore is durable storage for the session token pair. The pair is
// the one resource written from multiple call sites (login, register,
// logout, refresh failure), so implementations must replace or remove
// both tokens together — a mismatched pair must never be observable.
type TokenStore interface {
	// Load returns the stored pair; a missing pair is (TokenPair{}, nil),
	// not an error.
	Load(ctx context.Context) (TokenPair, error)
	Save(ctx context.Context, pair TokenPair) error
	Clear(ctx context.Context) error
}
