package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/roastery-dev/roastery/pkg/asyncx"
	"github.com/roastery-dev/roastery/pkg/iam"
	"github.com/roastery-dev/roastery/pkg/iam/hashing"
	"github.com/roastery-dev/roastery/pkg/iam/otp"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/kernel"
	"github.com/roastery-dev/roastery/pkg/logx"
	"github.com/roastery-dev/roastery/pkg/notifx"
)

// SignUpInput holds the fields for a new password account.
type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInInput holds the credentials for a password sign-in. OTPCode is
// required once the account has the second factor enabled.
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTPCode  string `json:"otp_code,omitempty"`
}

// AuthService implements the token lifecycle.
type AuthService struct {
	users      user.Repository
	hashing    hashing.Service
	jwt        *JWTService
	refreshIDs RefreshTokenIDStorage
	otp        otp.Service
	audit      AuditService
	notifier   *notifx.Client
	emailFrom  string
}

func NewAuthService(
	users user.Repository,
	hashing hashing.Service,
	jwt *JWTService,
	refreshIDs RefreshTokenIDStorage,
	otpService otp.Service,
	audit AuditService,
	notifier *notifx.Client,
	emailFrom string,
) *AuthService {
	return &AuthService{
		users:      users,
		hashing:    hashing,
		jwt:        jwt,
		refreshIDs: refreshIDs,
		otp:        otpService,
		audit:      audit,
		notifier:   notifier,
		emailFrom:  emailFrom,
	}
}

// SignUp creates a password account. A duplicate email surfaces as a
// conflict; sign-up is the one flow where account existence is observable.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*user.User, error) {
	digest, err := s.hashing.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, user.CreateInput{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: digest,
		Role:         kernel.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAccountCreated(ctx, created.ID, "password")
	s.sendEmail(created.Email, "Welcome to Roastery", TemplateWelcome, emailData{
		Name:  created.Name,
		Email: created.Email,
	})

	return created, nil
}

// SignIn verifies email, password and, when enabled, the second factor.
// Every failure yields the same invalid-credentials error.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (Tokens, error) {
	u, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		s.audit.LogSignIn(ctx, input.Email, "password", false)
		return Tokens{}, ErrInvalidCredentials()
	}

	if !u.HasPassword() || !s.hashing.Compare(input.Password, u.PasswordHash) {
		s.audit.LogSignIn(ctx, input.Email, "password", false)
		return Tokens{}, ErrInvalidCredentials()
	}

	if u.OTPEnabled {
		if input.OTPCode == "" || !s.otp.Verify(input.OTPCode, u.TOTPSecret) {
			// Logged as the specific failure; the caller only ever sees
			// the flat credentials error.
			logx.WithError(otp.ErrInvalidOTP()).WithFields(logx.Fields{
				"user_id": u.ID,
			}).Warn("Second factor rejected on sign-in")
			s.audit.LogSignIn(ctx, input.Email, "password", false)
			return Tokens{}, ErrInvalidCredentials()
		}
	}

	tokens, err := s.GenerateTokens(ctx, u)
	if err != nil {
		return Tokens{}, err
	}

	s.audit.LogSignIn(ctx, input.Email, "password", true)
	return tokens, nil
}

// GenerateTokens issues a fresh access/refresh pair and records the new
// refresh id, displacing whichever one was valid before.
func (s *AuthService) GenerateTokens(ctx context.Context, u *user.User) (Tokens, error) {
	refreshTokenID := uuid.NewString()

	signed, err := asyncx.All(ctx,
		func(context.Context) (string, error) {
			return s.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
		},
		func(context.Context) (string, error) {
			return s.jwt.GenerateRefreshToken(u.ID, refreshTokenID)
		},
	)
	if err != nil {
		return Tokens{}, err
	}

	if err := s.refreshIDs.Insert(ctx, u.ID, refreshTokenID); err != nil {
		return Tokens{}, err
	}

	return Tokens{AccessToken: signed[0], RefreshToken: signed[1]}, nil
}

// RefreshTokens redeems a refresh token for a new pair. The presented
// rotation id is swapped for a fresh one atomically; losing that swap means
// the token was already spent and the caller gets a flat unauthenticated
// error with no state change.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (Tokens, error) {
	userID, currentID, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		logx.WithError(err).Debug("Refresh token rejected")
		return Tokens{}, iam.ErrUnauthenticated()
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.audit.LogTokenRefresh(ctx, userID, false)
		return Tokens{}, iam.ErrUnauthenticated()
	}

	nextID := uuid.NewString()
	rotated, err := s.refreshIDs.Rotate(ctx, u.ID, currentID, nextID)
	if err != nil {
		return Tokens{}, err
	}
	if !rotated {
		// Replay of a spent or displaced refresh token. Logged as the
		// specific failure; the caller only ever sees the flat
		// unauthenticated error.
		logx.WithError(ErrRefreshTokenInvalidated()).WithFields(logx.Fields{
			"user_id": u.ID,
		}).Warn("Refresh token reuse detected")
		s.audit.LogTokenRefresh(ctx, u.ID, false)
		return Tokens{}, iam.ErrUnauthenticated()
	}

	signed, err := asyncx.All(ctx,
		func(context.Context) (string, error) {
			return s.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
		},
		func(context.Context) (string, error) {
			return s.jwt.GenerateRefreshToken(u.ID, nextID)
		},
	)
	if err != nil {
		return Tokens{}, err
	}

	s.audit.LogTokenRefresh(ctx, u.ID, true)
	return Tokens{AccessToken: signed[0], RefreshToken: signed[1]}, nil
}

// SignOut drops the stored refresh id. Outstanding access tokens keep
// working until they expire; no new pair can be minted from old state.
func (s *AuthService) SignOut(ctx context.Context, userID kernel.UserID) error {
	if err := s.refreshIDs.Invalidate(ctx, userID); err != nil {
		return err
	}
	s.audit.LogSignOut(ctx, userID)
	return nil
}

// VerifyAccessToken resolves a bearer token to its principal. Callers see a
// flat unauthenticated error whatever the defect was.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*kernel.ActiveUser, error) {
	active, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		logx.WithError(err).Debug("Access token rejected")
		return nil, iam.ErrUnauthenticated()
	}
	return active, nil
}

// EnrollSecondFactor generates a TOTP secret for the principal and enables
// it immediately. The secret and provisioning URI are returned exactly once.
func (s *AuthService) EnrollSecondFactor(ctx context.Context, active kernel.ActiveUser) (otp.Enrollment, error) {
	enrollment, err := s.otp.GenerateSecret(ctx, active.Email)
	if err != nil {
		return otp.Enrollment{}, err
	}

	if err := s.otp.Enable(ctx, active.Sub, enrollment.Secret); err != nil {
		return otp.Enrollment{}, err
	}

	s.audit.LogSecondFactorEnabled(ctx, active.Sub)
	s.sendEmail(active.Email, "Two-factor authentication enabled", TemplateSecondFactorEnabled, emailData{
		Email: active.Email,
	})

	return enrollment, nil
}

// sendEmail fires a templated notification without holding up the request.
// Delivery failures are logged and swallowed.
func (s *AuthService) sendEmail(to, subject, templateName string, data emailData) {
	if s.notifier == nil {
		return
	}
	asyncx.Do(func() {
		msg := notifx.EmailMessage{
			From:    s.emailFrom,
			To:      []string{to},
			Subject: subject,
		}
		if err := s.notifier.SendTemplatedEmail(context.Background(), templateName, data, msg); err != nil {
			logx.WithError(err).Warn("Failed to send notification email")
		}
	})
}
