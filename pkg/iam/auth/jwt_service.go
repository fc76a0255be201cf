package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

// JWTService signs and validates the HS256 tokens issued by this service.
type JWTService struct {
	secretKey       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	issuer          string
	audience        string
}

// NewJWTService creates a new JWT signer.
func NewJWTService(secretKey string, accessTokenTTL, refreshTokenTTL time.Duration, issuer, audience string) *JWTService {
	if accessTokenTTL == 0 {
		accessTokenTTL = 15 * time.Minute
	}
	if refreshTokenTTL == 0 {
		refreshTokenTTL = 7 * 24 * time.Hour
	}
	if issuer == "" {
		issuer = "roastery"
	}
	if audience == "" {
		audience = "roastery-api"
	}

	return &JWTService{
		secretKey:       []byte(secretKey),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		issuer:          issuer,
		audience:        audience,
	}
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	Email string      `json:"email"`
	Role  kernel.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. The token id is matched
// against storage on redemption, which is what makes refresh single-use.
type RefreshClaims struct {
	RefreshTokenID string `json:"refresh_token_id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a short-lived access token for the user.
func (j *JWTService) GenerateAccessToken(userID kernel.UserID, email string, role kernel.Role) (string, error) {
	now := time.Now()

	claims := AccessClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   userID.String(),
			Audience:  []string{j.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithCause(err)
	}
	return tokenString, nil
}

// GenerateRefreshToken signs a refresh token carrying the rotation id.
func (j *JWTService) GenerateRefreshToken(userID kernel.UserID, refreshTokenID string) (string, error) {
	now := time.Now()

	claims := RefreshClaims{
		RefreshTokenID: refreshTokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   userID.String(),
			Audience:  []string{j.refreshAudience()},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithCause(err)
	}
	return tokenString, nil
}

// RefreshTokenTTL exposes the refresh window so storage can expire ids in
// step with the tokens that reference them.
func (j *JWTService) RefreshTokenTTL() time.Duration {
	return j.refreshTokenTTL
}

// ValidateAccessToken checks signature and validity window and returns the
// principal the token was issued to. Expiry is reported distinctly from
// every other defect.
func (j *JWTService) ValidateAccessToken(tokenString string) (*kernel.ActiveUser, error) {
	var claims AccessClaims
	if err := j.parse(tokenString, &claims, j.audience); err != nil {
		return nil, err
	}

	userID, err := kernel.ParseUserID(claims.Subject)
	if err != nil {
		return nil, ErrTokenInvalid().WithCause(err)
	}

	return &kernel.ActiveUser{
		Sub:       userID,
		Email:     claims.Email,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ValidateRefreshToken checks the token and returns the subject and the
// rotation id it carries.
func (j *JWTService) ValidateRefreshToken(tokenString string) (kernel.UserID, string, error) {
	var claims RefreshClaims
	if err := j.parse(tokenString, &claims, j.refreshAudience()); err != nil {
		return 0, "", err
	}
	if claims.RefreshTokenID == "" {
		return 0, "", ErrTokenInvalid().WithDetail("reason", "missing refresh token id")
	}

	userID, err := kernel.ParseUserID(claims.Subject)
	if err != nil {
		return 0, "", ErrTokenInvalid().WithCause(err)
	}
	return userID, claims.RefreshTokenID, nil
}

// refreshAudience keeps refresh tokens from passing where an access token
// is expected and vice versa.
func (j *JWTService) refreshAudience() string {
	return j.audience + ":refresh"
}

func (j *JWTService) parse(tokenString string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithAudience(audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired().WithCause(err)
		}
		return ErrTokenInvalid().WithCause(err)
	}
	if !token.Valid {
		return ErrTokenInvalid().WithDetail("reason", "token is invalid")
	}
	return nil
}
