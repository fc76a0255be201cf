package kernel

import "time"

// ============================================================================
// Context Types
// ============================================================================

// ActiveUser is the authenticated-principal context derived per request from
// a verified token or API key. It lives only for the duration of the request
// and is never persisted.
type ActiveUser struct {
	Sub      UserID `json:"sub"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	IsAPIKey bool   `json:"is_api_key"`

	// Scopes are the grants carried by an API-key derived context. Token
	// derived contexts leave them empty and act with the user's full
	// authority.
	Scopes []string `json:"scopes,omitempty"`

	// IssuedAt and ExpiresAt are only set when the context was derived from
	// a token; API-key derived contexts leave them zero.
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}

// IsValid verifies the ActiveUser carries a usable identity
func (au *ActiveUser) IsValid() bool {
	return au != nil && !au.Sub.IsZero()
}

// HasRole verifies the active user holds at least one of the given roles
func (au *ActiveUser) HasRole(roles ...Role) bool {
	if au == nil {
		return false
	}
	for _, r := range roles {
		if au.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin verifies the active user has the admin role
func (au *ActiveUser) IsAdmin() bool {
	return au.HasRole(RoleAdmin)
}

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// ActiveUserKey is the key for the ActiveUser in request-scoped storage
	ActiveUserKey ContextKey = "active_user"

	// RequestIDKey is the key for the request id
	RequestIDKey ContextKey = "request_id"
)
