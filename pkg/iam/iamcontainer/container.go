package iamcontainer

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/roastery-dev/roastery/pkg/config"
	"github.com/roastery-dev/roastery/pkg/iam/apikey/apikeyapi"
	"github.com/roastery-dev/roastery/pkg/iam/apikey/apikeyinfra"
	"github.com/roastery-dev/roastery/pkg/iam/apikey/apikeysrv"
	"github.com/roastery-dev/roastery/pkg/iam/auth"
	"github.com/roastery-dev/roastery/pkg/iam/auth/authapi"
	"github.com/roastery-dev/roastery/pkg/iam/auth/authinfra"
	"github.com/roastery-dev/roastery/pkg/iam/authz"
	"github.com/roastery-dev/roastery/pkg/iam/hashing"
	"github.com/roastery-dev/roastery/pkg/iam/otp/otpsrv"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/iam/user/userapi"
	"github.com/roastery-dev/roastery/pkg/iam/user/userinfra"
	"github.com/roastery-dev/roastery/pkg/logx"
	"github.com/roastery-dev/roastery/pkg/notifx"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state — everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config

	// Notifier is a cross-context dependency. The client already carries the
	// registered email templates; the IAM module has zero knowledge of the
	// concrete delivery provider behind it.
	Notifier *notifx.Client
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// Only expose what other modules or cmd/ actually need.
// Internal repos, infra details, etc. stay private.
// ---------------------------------------------------------------------------

type Container struct {
	// Services — available for cross-module consumption via interfaces
	UserRepository user.Repository
	AuthService    *auth.AuthService
	GoogleService  *auth.GoogleAuthService
	APIKeyService  *apikeysrv.APIKeyService
	OTPService     *otpsrv.TOTPService

	// Policy handlers — exposed so cmd/ can verify route coverage at startup
	PolicyStorage *authz.HandlerStorage

	// Handlers — needed by cmd/ to register routes
	AuthHandlers   *authapi.AuthHandlers
	APIKeyHandlers *apikeyapi.APIKeyHandlers
	UserHandlers   *userapi.UserHandlers

	// Guard — needed by cmd/ to protect route groups
	Guard *auth.Guard
}

// ---------------------------------------------------------------------------
// New: constructs the entire IAM dependency graph.
// Order matters: infra → repos → services → handlers → guard.
// ---------------------------------------------------------------------------

func New(ctx context.Context, deps Deps) (*Container, error) {
	logx.Info("🔧 Initializing IAM container...")

	c := &Container{}

	// ── Repositories ─────────────────────────────────────────────────────

	userRepo := userinfra.NewPostgresUserRepository(deps.DB)
	apiKeyRepo := apikeyinfra.NewPostgresAPIKeyRepository(deps.DB)
	c.UserRepository = userRepo

	// ── Infrastructure services ──────────────────────────────────────────

	hashingSvc := hashing.NewBcryptService(deps.Cfg.Auth.Password.BcryptCost)
	refreshIDs := authinfra.NewRedisRefreshTokenIDStorage(deps.Redis, deps.Cfg.Auth.JWT.RefreshTokenTTL)
	auditSvc := authinfra.NewLogxAuditService()

	jwtSvc := auth.NewJWTService(
		deps.Cfg.Auth.JWT.Secret,
		deps.Cfg.Auth.JWT.AccessTokenTTL,
		deps.Cfg.Auth.JWT.RefreshTokenTTL,
		deps.Cfg.Auth.JWT.Issuer,
		deps.Cfg.Auth.JWT.Audience,
	)

	// ── Domain services ──────────────────────────────────────────────────

	c.OTPService = otpsrv.NewTOTPService(userRepo, deps.Cfg.Auth.OTP.AppName)

	c.AuthService = auth.NewAuthService(
		userRepo,
		hashingSvc,
		jwtSvc,
		refreshIDs,
		c.OTPService,
		auditSvc,
		deps.Notifier,
		deps.Cfg.Notif.FromAddress,
	)

	c.APIKeyService = apikeysrv.NewAPIKeyService(
		apiKeyRepo,
		userRepo,
		hashingSvc,
	)

	// ── Federated sign-in ────────────────────────────────────────────────

	if deps.Cfg.Auth.Google.Enabled {
		verifier, err := authinfra.NewGoogleVerifier(ctx, deps.Cfg.Auth.Google.ClientID)
		if err != nil {
			return nil, err
		}
		c.GoogleService = auth.NewGoogleAuthService(verifier, userRepo, c.AuthService)
		logx.Info("  ✅ Google sign-in enabled")
	} else {
		logx.Warn("  ⚠️  Google sign-in disabled (no GOOGLE_CLIENT_ID)")
	}

	// ── Policy handlers ──────────────────────────────────────────────────

	c.PolicyStorage = authz.NewHandlerStorage()
	c.PolicyStorage.Add(
		authz.KindOrganizationContributor,
		authz.NewOrganizationContributorHandler(deps.Cfg.Auth.OrgDomain),
	)

	// ── Guard and handlers ───────────────────────────────────────────────

	c.Guard = auth.NewGuard(c.AuthService, c.APIKeyService, c.PolicyStorage)
	c.AuthHandlers = authapi.NewAuthHandlers(c.AuthService, c.GoogleService)
	c.APIKeyHandlers = apikeyapi.NewAPIKeyHandlers(c.APIKeyService)
	c.UserHandlers = userapi.NewUserHandlers(userRepo)

	logx.Info("✅ IAM container initialized")
	return c, nil
}
