package user

import (
	"context"

	"github.com/roastery-dev/roastery/pkg/kernel"
)

// CreateInput holds the attributes for a new user record. Exactly one of
// PasswordHash or GoogleID may be empty, never both.
type CreateInput struct {
	Email        string
	Name         string
	PasswordHash string
	GoogleID     string
	Role         kernel.Role
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Name         *string
	PasswordHash *string
	Role         *kernel.Role
	TOTPSecret   *string
	OTPEnabled   *bool
}

// Repository defines the contract for user persistence.
type Repository interface {
	// Create inserts a new user and returns it with its assigned id.
	// A unique-constraint conflict yields ErrUserExists.
	Create(ctx context.Context, input CreateInput) (*User, error)

	// FindByEmail returns the user with the given email, including the
	// password hash, or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByGoogleID returns the user bound to the external subject id,
	// or ErrUserNotFound.
	FindByGoogleID(ctx context.Context, googleID string) (*User, error)

	// FindByID returns the user with the given id, or ErrUserNotFound.
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)

	// Update applies the patch to the user with the given id.
	Update(ctx context.Context, id kernel.UserID, patch Patch) error

	// List returns a page of users ordered by id.
	List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[User], error)
}
