package ports

import (
	"context"

	"github.com/gridpoint/auth-api/internal/core/domain"
)

// RegisterInput carries the client-supplied fields of a registration
// request. Role is the raw string form; it is parsed and defaulted by the
// service.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// AuthService orchestrates registration, login, logout, and session-status
// resolution. Identity is passed in explicitly (resolved by the HTTP
// boundary via Identify); there is no ambient current-user state.
type AuthService interface {
	// Register creates a new account. The actor must be an authenticated
	// admin: a nil actor fails with ErrAuthRequired, a non-admin with
	// ErrPermissionDenied.
	Register(ctx context.Context, actor *domain.User, in RegisterInput) (*domain.User, error)

	// Login verifies credentials and opens a session, returning the token
	// and the authenticated user.
	Login(ctx context.Context, username, password string, remember bool) (string, *domain.User, error)

	// Logout destroys the actor's session. Destruction is idempotent.
	Logout(ctx context.Context, actor *domain.User, token string) error

	// Identify resolves a session token to its user, failing with
	// ErrAuthRequired when the token is absent, unknown, or orphaned.
	Identify(ctx context.Context, token string) (*domain.User, error)
}
