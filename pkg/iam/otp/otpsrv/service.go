package otpsrv

import (
	"context"

	"github.com/pquerna/otp/totp"
	"github.com/roastery-dev/roastery/pkg/iam/otp"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/kernel"
	"github.com/roastery-dev/roastery/pkg/logx"
	"github.com/roastery-dev/roastery/pkg/ptrx"
)

// TOTPService implements otp.Service on RFC 6238 time-based one-time
// passwords.
type TOTPService struct {
	users  user.Repository
	issuer string
}

// NewTOTPService creates a second-factor service. The issuer is the label
// authenticator apps display next to the account.
func NewTOTPService(users user.Repository, issuer string) *TOTPService {
	return &TOTPService{users: users, issuer: issuer}
}

// GenerateSecret creates a fresh TOTP secret bound to the account email.
func (s *TOTPService) GenerateSecret(ctx context.Context, email string) (otp.Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: email,
	})
	if err != nil {
		logx.WithError(err).Error("Failed to generate TOTP secret")
		return otp.Enrollment{}, otp.ErrEnrollmentFailed().WithCause(err)
	}
	return otp.Enrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// Verify reports whether the code is currently valid for the secret. The
// validator accepts one period of clock skew in either direction.
func (s *TOTPService) Verify(code, secret string) bool {
	return totp.Validate(code, secret)
}

// Enable persists the secret and switches the second factor on.
func (s *TOTPService) Enable(ctx context.Context, userID kernel.UserID, secret string) error {
	return s.users.Update(ctx, userID, user.Patch{
		TOTPSecret: ptrx.String(secret),
		OTPEnabled: ptrx.Bool(true),
	})
}
