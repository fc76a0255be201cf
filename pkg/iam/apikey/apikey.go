// Package apikey implements long-lived machine credentials.
//
// A raw key is the base64 encoding of "<uuid> <secret>". Only a bcrypt
// digest of the raw key is stored; the uuid half travels in the clear inside
// the key so the digest can be located without a table scan.
package apikey

import (
	"net/http"
	"time"

	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

// Scope limits what a machine credential may do.
type Scope string

const (
	ScopeRead   Scope = "read"
	ScopeWrite  Scope = "write"
	ScopeDelete Scope = "delete"
	ScopeAll    Scope = "all"
)

// Valid reports whether the value is one of the defined scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeRead, ScopeWrite, ScopeDelete, ScopeAll:
		return true
	}
	return false
}

// HasScope reports whether the granted set includes the wanted scope,
// either directly or via the all scope.
func HasScope(granted []Scope, want Scope) bool {
	for _, s := range granted {
		if s == want || s == ScopeAll {
			return true
		}
	}
	return false
}

// APIKey is the stored half of a machine credential. The raw key itself is
// shown to the caller exactly once, at creation time.
type APIKey struct {
	ID        int64         `json:"id"`
	UUID      string        `json:"uuid"`
	KeyHash   string        `json:"-"`
	UserID    kernel.UserID `json:"user_id"`
	Name      string        `json:"name"`
	Scopes    []Scope       `json:"scopes"`
	CreatedAt time.Time     `json:"created_at"`
}

// HasScope reports whether the key grants the scope, either directly or via
// the all scope.
func (k *APIKey) HasScope(scope Scope) bool {
	return HasScope(k.Scopes, scope)
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("APIKEY")

var (
	CodeAPIKeyNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "API key not found")
	CodeAPIKeyInvalid  = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Invalid API key")
	CodeInvalidScope   = ErrRegistry.Register("INVALID_SCOPE", errx.TypeValidation, http.StatusBadRequest, "Unknown API key scope")
)

func ErrAPIKeyNotFound() *errx.Error { return ErrRegistry.New(CodeAPIKeyNotFound) }
func ErrAPIKeyInvalid() *errx.Error  { return ErrRegistry.New(CodeAPIKeyInvalid) }
func ErrInvalidScope() *errx.Error   { return ErrRegistry.New(CodeInvalidScope) }
