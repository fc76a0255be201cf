// Package authapi exposes the authentication flows over HTTP.
package authapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam"
	"github.com/roastery-dev/roastery/pkg/iam/auth"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

// UserResponse is the outward shape of an account. Password hashes and TOTP
// secrets never leave the service.
type UserResponse struct {
	ID         kernel.UserID `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Role       kernel.Role   `json:"role"`
	OTPEnabled bool          `json:"otp_enabled"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		OTPEnabled: u.OTPEnabled,
	}
}

// AuthHandlers wires the authentication services to fiber routes.
type AuthHandlers struct {
	auth   *auth.AuthService
	google *auth.GoogleAuthService
}

func NewAuthHandlers(authService *auth.AuthService, google *auth.GoogleAuthService) *AuthHandlers {
	return &AuthHandlers{
		auth:   authService,
		google: google,
	}
}

// RegisterRoutes mounts the authentication endpoints.
func (h *AuthHandlers) RegisterRoutes(app *fiber.App, guard *auth.Guard) {
	grp := app.Group("/authentication")

	grp.Post("/sign-up", h.SignUp)
	grp.Post("/sign-in", h.SignIn)
	grp.Post("/refresh-tokens", h.RefreshTokens)
	grp.Post("/google", h.GoogleSignIn)

	bearer := guard.Protect(auth.Access{AuthTypes: []auth.AuthType{auth.AuthTypeBearer}})
	grp.Post("/sign-out", bearer, h.SignOut)
	grp.Post("/2fa/generate", bearer, h.EnrollSecondFactor)
}

// SignUp creates a password account.
func (h *AuthHandlers) SignUp(c *fiber.Ctx) error {
	var input auth.SignUpInput
	if err := c.BodyParser(&input); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if input.Email == "" || input.Password == "" {
		return errx.New("email and password are required", errx.TypeValidation)
	}

	created, err := h.auth.SignUp(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(created))
}

// SignIn exchanges credentials for a token pair.
func (h *AuthHandlers) SignIn(c *fiber.Ctx) error {
	var input auth.SignInInput
	if err := c.BodyParser(&input); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if input.Email == "" || input.Password == "" {
		return errx.New("email and password are required", errx.TypeValidation)
	}

	tokens, err := h.auth.SignIn(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.JSON(tokens)
}

// RefreshTokens redeems a refresh token for a new pair.
func (h *AuthHandlers) RefreshTokens(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if input.RefreshToken == "" {
		return errx.New("refresh_token is required", errx.TypeValidation)
	}

	tokens, err := h.auth.RefreshTokens(c.UserContext(), input.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(tokens)
}

// SignOut invalidates the caller's refresh token.
func (h *AuthHandlers) SignOut(c *fiber.Ctx) error {
	active, ok := auth.ActiveUserFromCtx(c)
	if !ok {
		return iam.ErrUnauthenticated()
	}
	if err := h.auth.SignOut(c.UserContext(), active.Sub); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// EnrollSecondFactor enables TOTP for the caller and returns the secret and
// provisioning URI exactly once.
func (h *AuthHandlers) EnrollSecondFactor(c *fiber.Ctx) error {
	active, ok := auth.ActiveUserFromCtx(c)
	if !ok {
		return iam.ErrUnauthenticated()
	}
	if active.IsAPIKey {
		return iam.ErrAccessDenied()
	}

	enrollment, err := h.auth.EnrollSecondFactor(c.UserContext(), active)
	if err != nil {
		return err
	}
	return c.JSON(enrollment)
}

// GoogleSignIn exchanges a Google ID token for a first-party token pair.
func (h *AuthHandlers) GoogleSignIn(c *fiber.Ctx) error {
	if h.google == nil {
		return errx.New("federated sign-in is not enabled", errx.TypeValidation)
	}

	var input struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if input.Token == "" {
		return errx.New("token is required", errx.TypeValidation)
	}

	tokens, err := h.google.Authenticate(c.UserContext(), input.Token)
	if err != nil {
		return err
	}
	return c.JSON(tokens)
}
