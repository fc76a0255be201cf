package auth

import (
	"context"

	"github.com/roastery-dev/roastery/pkg/kernel"
)

// RefreshTokenIDStorage tracks the single currently valid refresh-token id
// per principal. Inserting overwrites whatever id was stored before, which
// is what invalidates older refresh tokens.
type RefreshTokenIDStorage interface {
	// Insert stores tokenID as the one valid id for the user.
	Insert(ctx context.Context, userID kernel.UserID, tokenID string) error

	// Rotate atomically replaces currentID with nextID. It reports false
	// when the stored id is not currentID, in which case nothing changes.
	Rotate(ctx context.Context, userID kernel.UserID, currentID, nextID string) (bool, error)

	// Invalidate drops the stored id so no refresh token can be redeemed.
	Invalidate(ctx context.Context, userID kernel.UserID) error
}

// Identity is what a federated provider asserts about a caller.
type Identity struct {
	Subject string
	Email   string
}

// IdentityVerifier checks a provider-issued ID token and extracts the
// asserted identity.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, rawToken string) (*Identity, error)
}

// AuditService records authentication events. Implementations must not
// block the request path.
type AuditService interface {
	LogSignIn(ctx context.Context, email string, method string, success bool)
	LogTokenRefresh(ctx context.Context, userID kernel.UserID, success bool)
	LogSignOut(ctx context.Context, userID kernel.UserID)
	LogAccountCreated(ctx context.Context, userID kernel.UserID, method string)
	LogSecondFactorEnabled(ctx context.Context, userID kernel.UserID)
}
