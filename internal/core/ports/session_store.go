package ports

import "context"

// SessionStore manages the binding between opaque session tokens and user
// ids. Implementations must make Destroy visible to subsequent Resolves
// (sequentially consistent per token).
type SessionStore interface {
	// Create issues a fresh unguessable token bound to userID. The remember
	// flag selects the longer-lived expiry policy.
	Create(ctx context.Context, userID string, remember bool) (string, error)

	// Resolve returns the user id a token is bound to, or
	// domain.ErrSessionInvalid for unknown, expired, or malformed tokens.
	Resolve(ctx context.Context, token string) (string, error)

	// Destroy invalidates a token immediately. Destroying an already
	// invalid token is not an error.
	Destroy(ctx context.Context, token string) error
}
