package apikey

import (
	"context"

	"github.com/roastery-dev/roastery/pkg/kernel"
)

// Repository defines the contract for API key persistence.
type Repository interface {
	// Save inserts a new key record and fills in its assigned id.
	Save(ctx context.Context, key *APIKey) error

	// FindByUUID returns the key with the given uuid, or ErrAPIKeyNotFound.
	FindByUUID(ctx context.Context, uuid string) (*APIKey, error)

	// FindByUser returns every key owned by the user.
	FindByUser(ctx context.Context, userID kernel.UserID) ([]*APIKey, error)

	// Delete removes the key with the given uuid when it belongs to the
	// user, or returns ErrAPIKeyNotFound.
	Delete(ctx context.Context, uuid string, userID kernel.UserID) error
}
