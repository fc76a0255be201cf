package iam

import (
	"net/http"

	"github.com/roastery-dev/roastery/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	// CodeUnauthenticated is the single outcome for every failure to prove
	// identity: missing header, malformed credential, expired token,
	// unknown API key. Callers must not learn which stage rejected them.
	CodeUnauthenticated = ErrRegistry.Register("UNAUTHENTICATED", errx.TypeAuthorization, http.StatusUnauthorized, "Unauthenticated")

	// CodeAccessDenied covers role and policy rejections for a principal
	// that already proved its identity.
	CodeAccessDenied = ErrRegistry.Register("ACCESS_DENIED", errx.TypeAuthorization, http.StatusForbidden, "Access denied")
)

// Helper functions
func ErrUnauthenticated() *errx.Error {
	return ErrRegistry.New(CodeUnauthenticated)
}

func ErrAccessDenied() *errx.Error {
	return ErrRegistry.New(CodeAccessDenied)
}
