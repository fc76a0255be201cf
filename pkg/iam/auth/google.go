package auth

import (
	"context"

	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/logx"
)

// GoogleAuthService exchanges Google ID tokens for first-party token pairs,
// creating the account on first use.
type GoogleAuthService struct {
	verifier IdentityVerifier
	users    user.Repository
	auth     *AuthService
}

func NewGoogleAuthService(verifier IdentityVerifier, users user.Repository, auth *AuthService) *GoogleAuthService {
	return &GoogleAuthService{
		verifier: verifier,
		users:    users,
		auth:     auth,
	}
}

// Authenticate verifies the provider token and signs the caller in. An
// unknown subject gets a fresh federated account; an email already taken by
// a password account is reported as a conflict.
func (s *GoogleAuthService) Authenticate(ctx context.Context, idToken string) (Tokens, error) {
	identity, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		logx.WithError(err).Debug("Federated token rejected")
		s.auth.audit.LogSignIn(ctx, "", "google", false)
		return Tokens{}, ErrFederationFailed().WithCause(err)
	}

	// A verified assertion must still carry both identifiers; an account
	// without an email or subject is unusable.
	if identity.Subject == "" || identity.Email == "" {
		logx.Warn("Federated assertion missing subject or email")
		s.auth.audit.LogSignIn(ctx, identity.Email, "google", false)
		return Tokens{}, ErrFederationFailed()
	}

	u, err := s.users.FindByGoogleID(ctx, identity.Subject)
	if err != nil {
		if !errx.IsCode(err, user.CodeUserNotFound) {
			return Tokens{}, err
		}
		u, err = s.register(ctx, identity)
		if err != nil {
			return Tokens{}, err
		}
	}

	tokens, err := s.auth.GenerateTokens(ctx, u)
	if err != nil {
		return Tokens{}, err
	}

	s.auth.audit.LogSignIn(ctx, u.Email, "google", true)
	return tokens, nil
}

func (s *GoogleAuthService) register(ctx context.Context, identity *Identity) (*user.User, error) {
	created, err := s.users.Create(ctx, user.CreateInput{
		Email:    identity.Email,
		GoogleID: identity.Subject,
	})
	if err != nil {
		// The email is already bound to a password account.
		return nil, err
	}
	s.auth.audit.LogAccountCreated(ctx, created.ID, "google")
	return created, nil
}
