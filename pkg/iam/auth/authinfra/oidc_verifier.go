package authinfra

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam/auth"
)

const googleIssuer = "https://accounts.google.com"

// GoogleVerifier implements auth.IdentityVerifier against Google's OIDC
// endpoint. Signing keys are fetched and cached by the underlying provider.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier discovers Google's OIDC configuration. The clientID is
// enforced as the token audience.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, errx.Wrap(err, "failed to discover Google OIDC provider", errx.TypeExternal)
	}
	return &GoogleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// VerifyIDToken checks signature, issuer, audience and expiry, and extracts
// the asserted subject and email.
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, rawToken string) (*auth.Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, auth.ErrFederationFailed().WithCause(err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, auth.ErrFederationFailed().WithCause(err)
	}

	return &auth.Identity{
		Subject: idToken.Subject,
		Email:   claims.Email,
	}, nil
}

var _ auth.IdentityVerifier = (*GoogleVerifier)(nil)
