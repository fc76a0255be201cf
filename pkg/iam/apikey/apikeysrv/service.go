package apikeysrv

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam"
	"github.com/roastery-dev/roastery/pkg/iam/apikey"
	"github.com/roastery-dev/roastery/pkg/iam/hashing"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/kernel"
	"github.com/roastery-dev/roastery/pkg/logx"
)

// GeneratedKey carries the raw key back to the caller. The raw value is not
// stored anywhere and cannot be recovered after this response.
type GeneratedKey struct {
	Key    apikey.APIKey `json:"key"`
	RawKey string        `json:"raw_key"`
	Notice string        `json:"notice"`
}

// APIKeyService creates and authenticates machine credentials.
type APIKeyService struct {
	keys    apikey.Repository
	users   user.Repository
	hashing hashing.Service
}

func NewAPIKeyService(keys apikey.Repository, users user.Repository, hashing hashing.Service) *APIKeyService {
	return &APIKeyService{
		keys:    keys,
		users:   users,
		hashing: hashing,
	}
}

// Generate mints a new key for the user. The returned raw key is shown
// exactly once; only its digest is persisted.
func (s *APIKeyService) Generate(ctx context.Context, userID kernel.UserID, name string, scopes []apikey.Scope) (*GeneratedKey, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	scopes, err := normalizeScopes(scopes)
	if err != nil {
		return nil, err
	}

	keyUUID := uuid.NewString()
	secret := uuid.NewString()
	raw := encodeRawKey(keyUUID, secret)

	// bcrypt caps its input at 72 bytes, so the digest covers the secret
	// half rather than the full encoded key.
	digest, err := s.hashing.Hash(secret)
	if err != nil {
		return nil, err
	}

	key := &apikey.APIKey{
		UUID:      keyUUID,
		KeyHash:   digest,
		UserID:    userID,
		Name:      name,
		Scopes:    scopes,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.keys.Save(ctx, key); err != nil {
		return nil, errx.Wrap(err, "failed to save API key", errx.TypeInternal)
	}

	return &GeneratedKey{
		Key:    *key,
		RawKey: raw,
		Notice: "⚠️ Save this key securely. It will not be shown again!",
	}, nil
}

// Authenticate resolves a raw key to the principal it belongs to. Every
// failure collapses to the same unauthenticated error so a caller cannot
// tell which uuids exist.
func (s *APIKeyService) Authenticate(ctx context.Context, rawKey string) (*kernel.ActiveUser, error) {
	keyUUID, secret, err := decodeRawKey(rawKey)
	if err != nil {
		return nil, iam.ErrUnauthenticated()
	}

	key, err := s.keys.FindByUUID(ctx, keyUUID)
	if err != nil {
		return nil, iam.ErrUnauthenticated()
	}

	if !s.hashing.Compare(secret, key.KeyHash) {
		logx.WithFields(logx.Fields{
			"key_uuid": keyUUID,
		}).Warn("API key digest mismatch")
		return nil, iam.ErrUnauthenticated()
	}

	owner, err := s.users.FindByID(ctx, key.UserID)
	if err != nil {
		return nil, iam.ErrUnauthenticated()
	}

	grants := make([]string, 0, len(key.Scopes))
	for _, scope := range key.Scopes {
		grants = append(grants, string(scope))
	}

	return &kernel.ActiveUser{
		Sub:      owner.ID,
		Email:    owner.Email,
		Role:     owner.Role,
		IsAPIKey: true,
		Scopes:   grants,
	}, nil
}

// List returns the stored halves of the user's keys. Raw keys are never
// recoverable from here.
func (s *APIKeyService) List(ctx context.Context, userID kernel.UserID) ([]*apikey.APIKey, error) {
	keys, err := s.keys.FindByUser(ctx, userID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list API keys", errx.TypeInternal)
	}
	return keys, nil
}

// Revoke deletes the key when it belongs to the user.
func (s *APIKeyService) Revoke(ctx context.Context, keyUUID string, userID kernel.UserID) error {
	return s.keys.Delete(ctx, keyUUID, userID)
}

// normalizeScopes validates against the closed scope set and drops duplicate
// grants. An empty request defaults to read-only.
func normalizeScopes(scopes []apikey.Scope) ([]apikey.Scope, error) {
	if len(scopes) == 0 {
		return []apikey.Scope{apikey.ScopeRead}, nil
	}

	out := make([]apikey.Scope, 0, len(scopes))
	seen := make(map[apikey.Scope]struct{}, len(scopes))
	for _, scope := range scopes {
		if !scope.Valid() {
			return nil, apikey.ErrInvalidScope().WithDetail("scope", string(scope))
		}
		if _, dup := seen[scope]; dup {
			continue
		}
		seen[scope] = struct{}{}
		out = append(out, scope)
	}
	return out, nil
}

func encodeRawKey(keyUUID, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(keyUUID + " " + secret))
}

func decodeRawKey(rawKey string) (keyUUID, secret string, err error) {
	decoded, err := base64.StdEncoding.DecodeString(rawKey)
	if err != nil {
		return "", "", apikey.ErrAPIKeyInvalid().WithCause(err)
	}
	parts := strings.SplitN(string(decoded), " ", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", apikey.ErrAPIKeyInvalid()
	}
	return parts[0], parts[1], nil
}
