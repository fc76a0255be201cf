// Package otp implements the TOTP second factor for password sign-in.
package otp

import (
	"net/http"

	"github.com/roastery-dev/roastery/pkg/errx"
)

// Enrollment is the material a user needs to register the second factor in
// an authenticator app. The secret is handed out exactly once, at enrollment
// time.
type Enrollment struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

var ErrRegistry = errx.NewRegistry("OTP")

var (
	CodeInvalidOTP       = ErrRegistry.Register("INVALID_OTP", errx.TypeValidation, http.StatusBadRequest, "Invalid or incorrect OTP code")
	CodeEnrollmentFailed = ErrRegistry.Register("ENROLLMENT_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate second-factor secret")
)

func ErrInvalidOTP() *errx.Error       { return ErrRegistry.New(CodeInvalidOTP) }
func ErrEnrollmentFailed() *errx.Error { return ErrRegistry.New(CodeEnrollmentFailed) }
