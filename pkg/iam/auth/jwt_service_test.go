package auth_test

import (
	"testing"
	"time"

	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam/auth"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := auth.NewJWTService("secret", time.Minute, time.Hour, "roastery", "roastery-api")

	token, err := svc.GenerateAccessToken(kernel.NewUserID(7), "ada@example.com", kernel.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}

	active, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error: %v", err)
	}
	if active.Sub != kernel.NewUserID(7) {
		t.Errorf("sub = %v, want 7", active.Sub)
	}
	if active.Email != "ada@example.com" {
		t.Errorf("email = %q", active.Email)
	}
	if active.Role != kernel.RoleAdmin {
		t.Errorf("role = %q, want admin", active.Role)
	}
	if active.ExpiresAt.IsZero() || active.IssuedAt.IsZero() {
		t.Error("validity window not populated")
	}
}

func TestExpiredAccessToken(t *testing.T) {
	svc := auth.NewJWTService("secret", -time.Minute, time.Hour, "roastery", "roastery-api")

	token, err := svc.GenerateAccessToken(kernel.NewUserID(1), "a@example.com", kernel.RoleUser)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}

	_, err = svc.ValidateAccessToken(token)
	if !errx.IsCode(err, auth.CodeTokenExpired) {
		t.Fatalf("ValidateAccessToken() error = %v, want %s", err, auth.CodeTokenExpired.Code)
	}
}

func TestTamperedAccessToken(t *testing.T) {
	svc := auth.NewJWTService("secret", time.Minute, time.Hour, "roastery", "roastery-api")

	token, err := svc.GenerateAccessToken(kernel.NewUserID(1), "a@example.com", kernel.RoleUser)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}

	tampered := token[:len(token)-4] + "AAAA"
	if _, err := svc.ValidateAccessToken(tampered); !errx.IsCode(err, auth.CodeTokenInvalid) {
		t.Fatalf("ValidateAccessToken(tampered) error = %v, want %s", err, auth.CodeTokenInvalid.Code)
	}
}

func TestForeignIssuerRejected(t *testing.T) {
	ours := auth.NewJWTService("secret", time.Minute, time.Hour, "roastery", "roastery-api")
	theirs := auth.NewJWTService("secret", time.Minute, time.Hour, "someone-else", "roastery-api")

	token, err := theirs.GenerateAccessToken(kernel.NewUserID(1), "a@example.com", kernel.RoleUser)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}

	if _, err := ours.ValidateAccessToken(token); !errx.IsCode(err, auth.CodeTokenInvalid) {
		t.Fatalf("ValidateAccessToken(foreign) error = %v, want %s", err, auth.CodeTokenInvalid.Code)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := auth.NewJWTService("secret", time.Minute, time.Hour, "roastery", "roastery-api")

	token, err := svc.GenerateRefreshToken(kernel.NewUserID(9), "rotation-id-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error: %v", err)
	}

	userID, rotationID, err := svc.ValidateRefreshToken(token)
	if err != nil {
		t.Fatalf("ValidateRefreshToken() error: %v", err)
	}
	if userID != kernel.NewUserID(9) {
		t.Errorf("sub = %v, want 9", userID)
	}
	if rotationID != "rotation-id-1" {
		t.Errorf("rotation id = %q", rotationID)
	}
}

func TestTokenKindsDoNotCross(t *testing.T) {
	svc := auth.NewJWTService("secret", time.Minute, time.Hour, "roastery", "roastery-api")

	access, err := svc.GenerateAccessToken(kernel.NewUserID(1), "a@example.com", kernel.RoleUser)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}
	refresh, err := svc.GenerateRefreshToken(kernel.NewUserID(1), "rid")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error: %v", err)
	}

	if _, err := svc.ValidateAccessToken(refresh); !errx.IsCode(err, auth.CodeTokenInvalid) {
		t.Errorf("refresh token passed access validation: %v", err)
	}
	if _, _, err := svc.ValidateRefreshToken(access); !errx.IsCode(err, auth.CodeTokenInvalid) {
		t.Errorf("access token passed refresh validation: %v", err)
	}
}
