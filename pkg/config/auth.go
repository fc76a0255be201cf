package config

import "time"

// AuthConfig configures the IAM module.
type AuthConfig struct {
	JWT      JWTConfig
	Password PasswordConfig
	OTP      OTPConfig
	Google   GoogleConfig

	// OrgDomain is the mail domain that marks an account as belonging to
	// the organization itself.
	OrgDomain string
}

// JWTConfig holds the signing parameters for access and refresh tokens.
type JWTConfig struct {
	Secret          string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// PasswordConfig holds credential-hashing parameters.
type PasswordConfig struct {
	BcryptCost int
}

// OTPConfig configures the TOTP second factor.
type OTPConfig struct {
	// AppName is the issuer embedded in provisioning URIs, shown by
	// authenticator apps next to the account email.
	AppName string
}

// GoogleConfig configures federated sign-in with Google ID tokens.
type GoogleConfig struct {
	Enabled  bool
	ClientID string
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", ""),
			Issuer:          getEnv("JWT_ISSUER", "roastery"),
			Audience:        getEnv("JWT_AUDIENCE", "roastery-api"),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		Password: PasswordConfig{
			BcryptCost: getEnvInt("AUTH_BCRYPT_COST", 12),
		},
		OTP: OTPConfig{
			AppName: getEnv("OTP_APP_NAME", "Roastery"),
		},
		Google: GoogleConfig{
			Enabled:  getEnv("GOOGLE_CLIENT_ID", "") != "",
			ClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		},
		OrgDomain: getEnv("AUTH_ORG_DOMAIN", "roastery.dev"),
	}
}
