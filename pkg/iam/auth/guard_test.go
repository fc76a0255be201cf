package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam/apikey"
	"github.com/roastery-dev/roastery/pkg/iam/apikey/apikeysrv"
	"github.com/roastery-dev/roastery/pkg/iam/auth"
	"github.com/roastery-dev/roastery/pkg/iam/authz"
	"github.com/roastery-dev/roastery/pkg/iam/hashing"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

// adminInput builds a CreateInput for an admin account with the password
// "hunter22".
func adminInput(t *testing.T, email string) user.CreateInput {
	t.Helper()
	digest, err := hashing.NewBcryptService(4).Hash("hunter22")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return user.CreateInput{
		Email:        email,
		Name:         "Admin",
		PasswordHash: digest,
		Role:         kernel.RoleAdmin,
	}
}

type memKeyRepo struct {
	keys map[string]*apikey.APIKey
	next int64
}

func (m *memKeyRepo) Save(ctx context.Context, key *apikey.APIKey) error {
	m.next++
	key.ID = m.next
	stored := *key
	m.keys[key.UUID] = &stored
	return nil
}

func (m *memKeyRepo) FindByUUID(ctx context.Context, uuid string) (*apikey.APIKey, error) {
	key, ok := m.keys[uuid]
	if !ok {
		return nil, apikey.ErrAPIKeyNotFound()
	}
	copied := *key
	return &copied, nil
}

func (m *memKeyRepo) FindByUser(ctx context.Context, userID kernel.UserID) ([]*apikey.APIKey, error) {
	return nil, nil
}

func (m *memKeyRepo) Delete(ctx context.Context, uuid string, userID kernel.UserID) error {
	delete(m.keys, uuid)
	return nil
}

type guardEnv struct {
	*testEnv
	app     *fiber.App
	apiKeys *apikeysrv.APIKeyService
}

func newGuardEnv(t *testing.T) *guardEnv {
	t.Helper()
	env := newTestEnv(t)

	apiKeys := apikeysrv.NewAPIKeyService(
		&memKeyRepo{keys: make(map[string]*apikey.APIKey)},
		env.users,
		hashing.NewBcryptService(4),
	)

	policies := authz.NewHandlerStorage()
	policies.Add(authz.KindOrganizationContributor, authz.NewOrganizationContributorHandler("roastery.dev"))

	guard := auth.NewGuard(env.svc, apiKeys, policies)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *errx.Error
			if errx.As(err, &e) {
				return c.Status(e.HTTPStatus).JSON(e)
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	app.Get("/open", guard.Protect(auth.Access{}), ok)
	app.Get("/me", guard.Protect(auth.Access{AuthTypes: []auth.AuthType{auth.AuthTypeBearer}}), func(c *fiber.Ctx) error {
		active, found := auth.ActiveUserFromCtx(c)
		if !found {
			return fiber.NewError(fiber.StatusInternalServerError, "no principal on request")
		}
		return c.JSON(active)
	})
	app.Get("/admin", guard.Protect(auth.Access{Roles: []kernel.Role{kernel.RoleAdmin}}), ok)
	app.Get("/machine", guard.Protect(auth.Access{AuthTypes: []auth.AuthType{auth.AuthTypeAPIKey}}), ok)
	app.Get("/either", guard.Protect(auth.Access{AuthTypes: []auth.AuthType{auth.AuthTypeBearer, auth.AuthTypeAPIKey}}), ok)
	app.Get("/reports", guard.Protect(auth.Access{
		AuthTypes: []auth.AuthType{auth.AuthTypeBearer, auth.AuthTypeAPIKey},
		Scopes:    []apikey.Scope{apikey.ScopeRead},
	}), ok)
	app.Get("/staff", guard.Protect(auth.Access{
		Roles:    []kernel.Role{kernel.RoleAdmin},
		Policies: []authz.Policy{authz.OrganizationContributorPolicy{}},
	}), ok)

	return &guardEnv{testEnv: env, app: app, apiKeys: apiKeys}
}

func (g *guardEnv) get(t *testing.T, path, authorization string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := g.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test(%s) error: %v", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func (g *guardEnv) bearerFor(t *testing.T, email, password string) string {
	t.Helper()
	tokens, err := g.svc.SignIn(context.Background(), auth.SignInInput{Email: email, Password: password})
	if err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	return "Bearer " + tokens.AccessToken
}

func TestGuardOpenRoute(t *testing.T) {
	g := newGuardEnv(t)

	if status := g.get(t, "/open", ""); status != http.StatusOK {
		t.Errorf("/open without credentials = %d, want 200", status)
	}
}

func TestGuardBearer(t *testing.T) {
	g := newGuardEnv(t)
	g.signUp(t, "ada@example.com", "hunter22")

	if status := g.get(t, "/me", ""); status != http.StatusUnauthorized {
		t.Errorf("/me without header = %d, want 401", status)
	}
	if status := g.get(t, "/me", "Bearer garbage"); status != http.StatusUnauthorized {
		t.Errorf("/me with garbage token = %d, want 401", status)
	}
	if status := g.get(t, "/me", "ApiKey whatever"); status != http.StatusUnauthorized {
		t.Errorf("/me with wrong scheme = %d, want 401", status)
	}
	if status := g.get(t, "/me", g.bearerFor(t, "ada@example.com", "hunter22")); status != http.StatusOK {
		t.Errorf("/me with valid bearer = %d, want 200", status)
	}
}

func TestGuardRoles(t *testing.T) {
	g := newGuardEnv(t)
	g.signUp(t, "user@example.com", "hunter22")

	if _, err := g.users.Create(context.Background(), adminInput(t, "boss@roastery.dev")); err != nil {
		t.Fatalf("creating admin: %v", err)
	}

	// Roles without auth types still demand a bearer token.
	if status := g.get(t, "/admin", ""); status != http.StatusUnauthorized {
		t.Errorf("/admin without credentials = %d, want 401", status)
	}
	if status := g.get(t, "/admin", g.bearerFor(t, "user@example.com", "hunter22")); status != http.StatusForbidden {
		t.Errorf("/admin as plain user = %d, want 403", status)
	}
	if status := g.get(t, "/admin", g.bearerFor(t, "boss@roastery.dev", "hunter22")); status != http.StatusOK {
		t.Errorf("/admin as admin = %d, want 200", status)
	}
}

func TestGuardAPIKey(t *testing.T) {
	g := newGuardEnv(t)
	u := g.signUp(t, "machine@example.com", "hunter22")

	generated, err := g.apiKeys.Generate(context.Background(), u.ID, "ci", nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if status := g.get(t, "/machine", "ApiKey "+generated.RawKey); status != http.StatusOK {
		t.Errorf("/machine with valid key = %d, want 200", status)
	}
	if status := g.get(t, "/machine", "ApiKey not-a-key"); status != http.StatusUnauthorized {
		t.Errorf("/machine with bad key = %d, want 401", status)
	}
	if status := g.get(t, "/machine", g.bearerFor(t, "machine@example.com", "hunter22")); status != http.StatusUnauthorized {
		t.Errorf("/machine with bearer token = %d, want 401", status)
	}
}

func TestGuardEitherScheme(t *testing.T) {
	g := newGuardEnv(t)
	u := g.signUp(t, "both@example.com", "hunter22")

	generated, err := g.apiKeys.Generate(context.Background(), u.ID, "ci", nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if status := g.get(t, "/either", g.bearerFor(t, "both@example.com", "hunter22")); status != http.StatusOK {
		t.Errorf("/either with bearer = %d, want 200", status)
	}
	if status := g.get(t, "/either", "ApiKey "+generated.RawKey); status != http.StatusOK {
		t.Errorf("/either with api key = %d, want 200", status)
	}
	if status := g.get(t, "/either", ""); status != http.StatusUnauthorized {
		t.Errorf("/either without credentials = %d, want 401", status)
	}
}

func TestGuardScopes(t *testing.T) {
	g := newGuardEnv(t)
	u := g.signUp(t, "scoped@example.com", "hunter22")

	readKey, err := g.apiKeys.Generate(context.Background(), u.ID, "reader", []apikey.Scope{apikey.ScopeRead})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	writeKey, err := g.apiKeys.Generate(context.Background(), u.ID, "writer", []apikey.Scope{apikey.ScopeWrite})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	allKey, err := g.apiKeys.Generate(context.Background(), u.ID, "root", []apikey.Scope{apikey.ScopeAll})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if status := g.get(t, "/reports", "ApiKey "+readKey.RawKey); status != http.StatusOK {
		t.Errorf("/reports with read-scoped key = %d, want 200", status)
	}
	if status := g.get(t, "/reports", "ApiKey "+writeKey.RawKey); status != http.StatusForbidden {
		t.Errorf("/reports with write-only key = %d, want 403", status)
	}
	if status := g.get(t, "/reports", "ApiKey "+allKey.RawKey); status != http.StatusOK {
		t.Errorf("/reports with all-scoped key = %d, want 200", status)
	}

	// Scopes constrain machine credentials only; a bearer token acts with
	// the user's full authority.
	if status := g.get(t, "/reports", g.bearerFor(t, "scoped@example.com", "hunter22")); status != http.StatusOK {
		t.Errorf("/reports with bearer = %d, want 200", status)
	}
}

func TestGuardPolicies(t *testing.T) {
	g := newGuardEnv(t)

	for _, email := range []string{"boss@roastery.dev", "outsider@example.com"} {
		if _, err := g.users.Create(context.Background(), adminInput(t, email)); err != nil {
			t.Fatalf("creating admin %s: %v", email, err)
		}
	}

	if status := g.get(t, "/staff", g.bearerFor(t, "boss@roastery.dev", "hunter22")); status != http.StatusOK {
		t.Errorf("/staff as org admin = %d, want 200", status)
	}
	if status := g.get(t, "/staff", g.bearerFor(t, "outsider@example.com", "hunter22")); status != http.StatusForbidden {
		t.Errorf("/staff as outside admin = %d, want 403", status)
	}
}
