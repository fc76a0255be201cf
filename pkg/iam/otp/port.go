package otp

import (
	"context"

	"github.com/roastery-dev/roastery/pkg/kernel"
)

// Service defines the second-factor contract consumed by the sign-in flow.
type Service interface {
	// GenerateSecret creates a fresh TOTP secret bound to the account
	// email together with its provisioning URI.
	GenerateSecret(ctx context.Context, email string) (Enrollment, error)

	// Verify reports whether the code is currently valid for the secret.
	Verify(code, secret string) bool

	// Enable persists the secret against the user and turns the second
	// factor on for subsequent sign-ins.
	Enable(ctx context.Context, userID kernel.UserID, secret string) error
}
