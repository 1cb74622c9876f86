package ports

import (
	"context"

	"github.com/auragate/parking-backend/internal/core/domain"
)

// UserRepository defines persistence operations for the user roster.
type UserRepository interface {
	// Create inserts a user. Returns domain.ErrUserExists when the email is
	// already taken (unique index on email).
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindAll returns the full roster in stable insertion order. Matching
	// relies on this ordering for its first-match-wins contract.
	FindAll(ctx context.Context) ([]*domain.User, error)
	FindByRoles(ctx context.Context, roles ...domain.Role) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	// DeleteStaleGuests removes GUEST users created before cutoff that own
	// no parking session, returning how many were removed.
	DeleteStaleGuests(ctx context.Context, cutoffUnix int64) (int64, error)
}
