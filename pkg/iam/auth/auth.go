// Package auth implements the token lifecycle: password and federated
// sign-in, access/refresh token issuance, single-use refresh rotation and
// sign-out.
package auth

import (
	"net/http"

	"github.com/roastery-dev/roastery/pkg/errx"
)

// Tokens is the pair handed to a caller after a successful sign-in or
// refresh. The refresh token is single-use; presenting it a second time
// invalidates nothing and yields an unauthenticated error.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	// CodeInvalidCredentials covers every password sign-in failure: unknown
	// email, wrong password, missing or wrong second-factor code. One code
	// for all of them so responses cannot be used to enumerate accounts.
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid credentials")

	CodeTokenExpired            = ErrRegistry.Register("TOKEN_EXPIRED", errx.TypeAuthorization, http.StatusUnauthorized, "Token expired")
	CodeTokenInvalid            = ErrRegistry.Register("TOKEN_INVALID", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid token")
	CodeRefreshTokenInvalidated = ErrRegistry.Register("REFRESH_TOKEN_INVALIDATED", errx.TypeAuthorization, http.StatusUnauthorized, "Refresh token invalidated")
	CodeTokenGenerationFailed   = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
	CodeFederationFailed        = ErrRegistry.Register("FEDERATION_FAILED", errx.TypeExternal, http.StatusUnauthorized, "Federated identity verification failed")
)

// Helper functions
func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrTokenExpired() *errx.Error {
	return ErrRegistry.New(CodeTokenExpired)
}

func ErrTokenInvalid() *errx.Error {
	return ErrRegistry.New(CodeTokenInvalid)
}

func ErrRefreshTokenInvalidated() *errx.Error {
	return ErrRegistry.New(CodeRefreshTokenInvalidated)
}

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrFederationFailed() *errx.Error {
	return ErrRegistry.New(CodeFederationFailed)
}
