package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/roastery-dev/roastery/pkg/iam"
	"github.com/roastery-dev/roastery/pkg/iam/apikey"
	"github.com/roastery-dev/roastery/pkg/iam/apikey/apikeysrv"
	"github.com/roastery-dev/roastery/pkg/iam/authz"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

// AuthType names a way a caller may prove identity on a route.
type AuthType string

const (
	// AuthTypeBearer accepts "Authorization: Bearer <access token>".
	AuthTypeBearer AuthType = "bearer"

	// AuthTypeAPIKey accepts "Authorization: ApiKey <raw key>".
	AuthTypeAPIKey AuthType = "api_key"

	// AuthTypeNone lets the request through anonymously.
	AuthTypeNone AuthType = "none"
)

// Access declares what a route demands. The zero value leaves the route
// open. Declaring roles or policies without auth types implies bearer.
// Scopes only constrain API-key callers; a bearer token carries the user's
// full authority.
type Access struct {
	AuthTypes []AuthType
	Roles     []kernel.Role
	Policies  []authz.Policy
	Scopes    []apikey.Scope
}

func (a Access) open() bool {
	return len(a.AuthTypes) == 0 && len(a.Roles) == 0 && len(a.Policies) == 0 && len(a.Scopes) == 0
}

func (a Access) authTypes() []AuthType {
	if len(a.AuthTypes) == 0 {
		return []AuthType{AuthTypeBearer}
	}
	return a.AuthTypes
}

// Guard turns Access declarations into fiber middleware: authentication
// first, then roles, then policies.
type Guard struct {
	auth     *AuthService
	apiKeys  *apikeysrv.APIKeyService
	policies *authz.HandlerStorage
}

func NewGuard(auth *AuthService, apiKeys *apikeysrv.APIKeyService, policies *authz.HandlerStorage) *Guard {
	return &Guard{
		auth:     auth,
		apiKeys:  apiKeys,
		policies: policies,
	}
}

// PolicyKinds collects the kinds an Access declares so containers can check
// handler coverage at startup.
func PolicyKinds(accesses ...Access) []authz.Kind {
	var kinds []authz.Kind
	for _, access := range accesses {
		for _, policy := range access.Policies {
			kinds = append(kinds, policy.Kind())
		}
	}
	return kinds
}

// Protect builds the middleware for one route.
func (g *Guard) Protect(access Access) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if access.open() {
			return c.Next()
		}

		active, err := g.authenticate(c, access.authTypes())
		if err != nil {
			return err
		}

		if active != nil {
			c.Locals(string(kernel.ActiveUserKey), *active)
		}

		if len(access.Roles) > 0 {
			if active == nil || !active.HasRole(access.Roles...) {
				return iam.ErrAccessDenied()
			}
		}

		if len(access.Scopes) > 0 && active != nil && active.IsAPIKey {
			granted := make([]apikey.Scope, 0, len(active.Scopes))
			for _, scope := range active.Scopes {
				granted = append(granted, apikey.Scope(scope))
			}
			for _, want := range access.Scopes {
				if !apikey.HasScope(granted, want) {
					return iam.ErrAccessDenied()
				}
			}
		}

		if len(access.Policies) > 0 {
			if active == nil {
				return iam.ErrAccessDenied()
			}
			if err := g.policies.Evaluate(c.UserContext(), *active, access.Policies...); err != nil {
				return err
			}
		}

		return c.Next()
	}
}

// authenticate tries each declared auth type in order. The first success
// wins; exhausting them yields a single flat unauthenticated error.
func (g *Guard) authenticate(c *fiber.Ctx, types []AuthType) (*kernel.ActiveUser, error) {
	header := c.Get(fiber.HeaderAuthorization)

	for _, authType := range types {
		switch authType {
		case AuthTypeNone:
			return nil, nil

		case AuthTypeBearer:
			token, ok := credentialForScheme(header, "Bearer")
			if !ok {
				continue
			}
			active, err := g.auth.VerifyAccessToken(c.UserContext(), token)
			if err != nil {
				continue
			}
			return active, nil

		case AuthTypeAPIKey:
			rawKey, ok := credentialForScheme(header, "ApiKey")
			if !ok {
				continue
			}
			active, err := g.apiKeys.Authenticate(c.UserContext(), rawKey)
			if err != nil {
				continue
			}
			return active, nil
		}
	}

	return nil, iam.ErrUnauthenticated()
}

func credentialForScheme(header, scheme string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// ActiveUserFromCtx retrieves the principal the guard stored on the request.
func ActiveUserFromCtx(c *fiber.Ctx) (kernel.ActiveUser, bool) {
	active, ok := c.Locals(string(kernel.ActiveUserKey)).(kernel.ActiveUser)
	return active, ok
}
