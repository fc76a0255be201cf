// Package authz evaluates role and policy checks for authenticated
// principals.
package authz

import (
	"net/http"

	"github.com/roastery-dev/roastery/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("AUTHZ")

var (
	CodePolicyViolation = ErrRegistry.Register("POLICY_VIOLATION", errx.TypeAuthorization, http.StatusForbidden, "Policy violation")

	// CodeHandlerMissing marks a deployment defect: a route declares a
	// policy kind no handler was registered for. It is checked at startup,
	// never surfaced to callers.
	CodeHandlerMissing = ErrRegistry.Register("HANDLER_MISSING", errx.TypeConfiguration, http.StatusInternalServerError, "No handler registered for policy")
)

func ErrPolicyViolation(reason string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodePolicyViolation, reason)
}

func ErrHandlerMissing(kind Kind) *errx.Error {
	return ErrRegistry.New(CodeHandlerMissing).WithDetail("policy_kind", string(kind))
}
