// Package iam (Identity and Access Management) provides authentication,
// second-factor enrollment, API keys, and role/policy authorization for the
// Roastery platform.
//
// # Overview
//
// The iam package is organized into several sub-packages that work together:
//
//   - iam/auth     — Password + Google sign-in, JWT tokens, refresh rotation, route guard
//   - iam/user     — User entity, roles, repository interface
//   - iam/apikey   — API key generation, verification, and management
//   - iam/otp      — TOTP second factor (enrollment + verification)
//   - iam/authz    — Policy handlers evaluated by the guard
//   - iam/hashing  — Password hashing service (bcrypt)
//
// # Architecture
//
// The package follows a layered, domain-driven architecture:
//
//	HTTP Handler  →  Service Layer  →  Repository Interface  →  Infrastructure (Postgres/Redis)
//
// Each sub-domain exposes its own error registry (e.g., "AUTH", "USER",
// "APIKEY"), domain entities, and repository interfaces. Infrastructure
// implementations live under <domain>infra, services under <domain>srv,
// and HTTP handlers under <domain>api.
//
// # Authentication Methods
//
// Three credential kinds are supported and can coexist on the same user:
//
//  1. Password — classic email + bcrypt-hashed password, optionally gated by
//     a TOTP second factor once the user enrolls one.
//
//  2. Google — an ID token minted by Google is exchanged for local tokens.
//     Accounts are created automatically on first federated sign-in.
//
//  3. API key — long-lived machine credential shown exactly once on
//     creation; only a digest of its secret half is stored.
//
// The first two produce the same JWT access/refresh token pair on success.
//
// # Refresh Token Rotation
//
// Each refresh token embeds a random identifier, and Redis holds exactly one
// valid identifier per user. Refreshing compares-and-swaps that identifier:
// the winner gets a fresh pair, a replayed token loses the swap and is
// rejected without touching the stored state. Signing in again displaces
// whatever identifier was stored before, so only the newest session can
// refresh.
//
// # Guard
//
// The auth.Guard protects Fiber routes declaratively:
//
//	app.Get("/admin", guard.Protect(auth.Access{
//		AuthTypes: []auth.AuthType{auth.AuthTypeBearer, auth.AuthTypeAPIKey},
//		Roles:     []kernel.Role{kernel.RoleAdmin},
//		Policies:  []authz.Policy{authz.OrganizationContributorPolicy{}},
//		Scopes:    []apikey.Scope{apikey.ScopeRead},
//	}), handler)
//
// An empty Access means the route is open. Roles or policies without
// explicit AuthTypes default to bearer. Scopes bind machine credentials
// only: an API key must carry every listed scope (or the all scope), while
// a bearer token acts with the user's full authority. Inside a handler:
//
//	active, ok := auth.ActiveUserFromCtx(c)
//
// Every policy named by a route must have a handler registered in the
// authz.HandlerStorage; the server checks coverage at boot and refuses to
// start otherwise.
//
// # ──────────────────────────────────────────────────────
// # ENDPOINT REFERENCE
// # ──────────────────────────────────────────────────────
//
// ## Authentication  (registered by AuthHandlers)
//
// ### POST /authentication/sign-up
//
// Creates a password account.
//
// Request body:
//
//	{ "email": "user@example.com", "password": "hunter22", "name": "Jane" }
//
// Response 201: UserResponse (no credential material).
// Error responses: 400 (validation), 409 (email taken)
//
// ### POST /authentication/sign-in
//
// Exchanges credentials for a token pair. When the account has a second
// factor enrolled the 6-digit code is mandatory.
//
// Request body:
//
//	{ "email": "user@example.com", "password": "hunter22", "otp_code": "123456" }
//
// Response 200:
//
//	{ "access_token": "<jwt>", "refresh_token": "<jwt>" }
//
// Error responses: 401 (AUTH.INVALID_CREDENTIALS — same response whether the
// email is unknown, the password is wrong, or the code is bad)
//
// ### POST /authentication/refresh-tokens
//
// Rotates a refresh token into a fresh pair. A replayed refresh token is
// rejected and logged as suspected reuse.
//
// Request body:
//
//	{ "refresh_token": "<jwt>" }
//
// Response 200: { "access_token": "...", "refresh_token": "..." }
// Error responses: 401 (IAM.UNAUTHENTICATED)
//
// ### POST /authentication/sign-out
//
// Invalidates the stored refresh identifier for the authenticated user.
// Outstanding access tokens keep working until they expire.
//
// Authentication: Bearer token.
// Response 204.
//
// ### POST /authentication/google
//
// Exchanges a Google ID token for local tokens, creating the account on
// first use. Returns 400 when federated sign-in is not configured.
//
// Request body:
//
//	{ "token": "<google-id-token>" }
//
// Response 200: { "access_token": "...", "refresh_token": "..." }
// Error responses: 401 (AUTH.FEDERATION_FAILED), 409 (email taken by a
// password account)
//
// ### POST /authentication/2fa/generate
//
// Generates a TOTP secret, stores it on the account, and returns the
// provisioning URI for authenticator apps. Requires a bearer token — API
// keys cannot enroll a second factor.
//
// Response 200:
//
//	{ "secret": "<base32>", "uri": "otpauth://totp/..." }
//
// ## API Keys  (registered by APIKeyHandlers — bearer token required)
//
// The raw key is base64("<uuid> <secret>") and is shown exactly once.
// Requests authenticate with:
//
//	Authorization: ApiKey <raw-key>
//
// ### POST /api-keys
//
// Request body:
//
//	{ "name": "CI Pipeline Key", "scopes": ["read", "write"] }
//
// Response 201:
//
//	{
//	  "key": { "id": 1, "uuid": "...", "user_id": 7, "name": "CI Pipeline Key", "scopes": ["read","write"], ... },
//	  "raw_key": "<base64>",
//	  "notice": "⚠️ Save this key securely. It will not be shown again!"
//	}
//
// Omitting scopes grants read only; duplicate scopes collapse; an unknown
// scope value is a 400.
//
// ### GET /api-keys
//
// Lists the caller's keys (digests are never returned):
//
//	{ "api_keys": [ ... ], "total": 3 }
//
// ### DELETE /api-keys/:uuid
//
// Revokes one of the caller's keys. Response 204.
//
// # JWT Token Structure
//
// Access tokens (HS256) carry:
//
//	{
//	  "email": "user@example.com",
//	  "role":  "admin",
//	  "iss": "roastery",
//	  "aud": ["roastery-api"],
//	  "sub": "7",
//	  "exp": 1718000900
//	}
//
// Refresh tokens carry a "refresh_token_id" claim instead and use the
// audience "roastery-api:refresh", so the two kinds never validate as each
// other.
//
// Default TTLs:
//   - Access token:  15 minutes
//   - Refresh token: 7 days
//
// # Error Response Format
//
// All errors follow the errx structured format:
//
//	{
//	  "code":    "AUTH.INVALID_CREDENTIALS",
//	  "message": "Invalid credentials",
//	  "type":    "UNAUTHORIZED",
//	  "status":  401
//	}
//
// Common error codes by module:
//
//	IAM.UNAUTHENTICATED           — 401  missing / invalid token or API key
//	IAM.PERMISSION_DENIED         — 403  authenticated but not allowed
//
//	AUTH.INVALID_CREDENTIALS      — 401  sign-in failed (uniform)
//	AUTH.TOKEN_EXPIRED            — 401
//	AUTH.TOKEN_INVALID            — 401
//	AUTH.FEDERATION_FAILED        — 401
//	AUTH.TOKEN_GENERATION_FAILED  — 500
//
//	AUTHZ.POLICY_VIOLATION        — 403
//	AUTHZ.HANDLER_MISSING         — 500  boot-time configuration defect
//
//	USER.NOT_FOUND                — 404
//	USER.ALREADY_EXISTS           — 409
//
//	APIKEY.NOT_FOUND              — 404
//	APIKEY.INVALID                — 401
//
//	OTP.INVALID_OTP               — 400
//	OTP.ENROLLMENT_FAILED         — 500
//
// # Infrastructure Dependencies
//
// Required:
//   - PostgreSQL — users, api_keys
//   - Redis      — one refresh-token identifier per user, TTL-bound
//
// Optional:
//   - Google OIDC discovery — only when GOOGLE_CLIENT_ID is set
//   - SES (or console) notifier — welcome and second-factor emails
package iam
