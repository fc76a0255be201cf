package user

import (
	"net/http"
	"time"

	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

// User is a principal known to the platform. A user always carries at least
// one of a password hash or a Google identity; federated-only accounts never
// hold a local password.
type User struct {
	ID    kernel.UserID
	Name  string
	Email string

	// PasswordHash is empty for federated-only accounts.
	PasswordHash string

	Role kernel.Role

	// GoogleID is the external subject id for federated accounts, empty
	// otherwise.
	GoogleID string

	// TOTPSecret and OTPEnabled drive the second-factor step during
	// password sign-in.
	TOTPSecret string
	OTPEnabled bool

	CreatedAt time.Time
}

// IsFederated reports whether the user signed up through an external
// identity provider.
func (u *User) IsFederated() bool {
	return u.GoogleID != ""
}

// HasPassword reports whether password sign-in is possible for this user.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeUserExists   = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "User already exists")
)

// Helper functions
func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

func ErrUserExists() *errx.Error {
	return ErrRegistry.New(CodeUserExists)
}
