package ports

import (
	"context"

	"github.com/gridpoint/auth-api/internal/core/domain"
)

// UserRepository defines the persistence contract for user accounts.
//
// Create must rely on store-level uniqueness constraints: two concurrent
// creates with the same username (or email) result in exactly one success
// and one ErrDuplicateUsername/ErrDuplicateEmail, never two rows.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}
