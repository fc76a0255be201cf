package authinfra

import (
	"context"
	"time"

	"github.com/roastery-dev/roastery/pkg/kernel"
	"github.com/roastery-dev/roastery/pkg/logx"
)

// LogxAuditService implements auth.AuditService using structured logx logging.
type LogxAuditService struct{}

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LogSignIn(_ context.Context, email string, method string, success bool) {
	logx.WithFields(logx.Fields{
		"audit_event": "sign_in",
		"email":       email,
		"method":      method,
		"success":     success,
		"timestamp":   time.Now(),
	}).Info("Audit: sign in")
}

func (s *LogxAuditService) LogTokenRefresh(_ context.Context, userID kernel.UserID, success bool) {
	logx.WithFields(logx.Fields{
		"audit_event": "token_refresh",
		"user_id":     userID,
		"success":     success,
		"timestamp":   time.Now(),
	}).Info("Audit: token refresh")
}

func (s *LogxAuditService) LogSignOut(_ context.Context, userID kernel.UserID) {
	logx.WithFields(logx.Fields{
		"audit_event": "sign_out",
		"user_id":     userID,
		"timestamp":   time.Now(),
	}).Info("Audit: sign out")
}

func (s *LogxAuditService) LogAccountCreated(_ context.Context, userID kernel.UserID, method string) {
	logx.WithFields(logx.Fields{
		"audit_event": "account_created",
		"user_id":     userID,
		"method":      method,
		"timestamp":   time.Now(),
	}).Info("Audit: account created")
}

func (s *LogxAuditService) LogSecondFactorEnabled(_ context.Context, userID kernel.UserID) {
	logx.WithFields(logx.Fields{
		"audit_event": "second_factor_enabled",
		"user_id":     userID,
		"timestamp":   time.Now(),
	}).Info("Audit: second factor enabled")
}
