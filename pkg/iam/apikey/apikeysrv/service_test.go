package apikeysrv_test

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam"
	"github.com/roastery-dev/roastery/pkg/iam/apikey"
	"github.com/roastery-dev/roastery/pkg/iam/apikey/apikeysrv"
	"github.com/roastery-dev/roastery/pkg/iam/hashing"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

type fakeKeyRepo struct {
	keys map[string]*apikey.APIKey
	next int64
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{keys: make(map[string]*apikey.APIKey)}
}

func (f *fakeKeyRepo) Save(ctx context.Context, key *apikey.APIKey) error {
	f.next++
	key.ID = f.next
	stored := *key
	f.keys[key.UUID] = &stored
	return nil
}

func (f *fakeKeyRepo) FindByUUID(ctx context.Context, uuid string) (*apikey.APIKey, error) {
	key, ok := f.keys[uuid]
	if !ok {
		return nil, apikey.ErrAPIKeyNotFound()
	}
	copied := *key
	return &copied, nil
}

func (f *fakeKeyRepo) FindByUser(ctx context.Context, userID kernel.UserID) ([]*apikey.APIKey, error) {
	var out []*apikey.APIKey
	for _, key := range f.keys {
		if key.UserID == userID {
			copied := *key
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeKeyRepo) Delete(ctx context.Context, uuid string, userID kernel.UserID) error {
	key, ok := f.keys[uuid]
	if !ok || key.UserID != userID {
		return apikey.ErrAPIKeyNotFound()
	}
	delete(f.keys, uuid)
	return nil
}

type fakeUserRepo struct {
	users map[kernel.UserID]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[kernel.UserID]*user.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, input user.CreateInput) (*user.User, error) {
	return nil, user.ErrUserExists()
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, user.ErrUserNotFound()
}

func (f *fakeUserRepo) FindByGoogleID(ctx context.Context, googleID string) (*user.User, error) {
	return nil, user.ErrUserNotFound()
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id kernel.UserID, patch user.Patch) error {
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[user.User], error) {
	return kernel.Paginated[user.User]{}, nil
}

func newService(t *testing.T) (*apikeysrv.APIKeyService, *fakeKeyRepo, *user.User) {
	t.Helper()
	owner := &user.User{
		ID:    kernel.NewUserID(7),
		Email: "machine@example.com",
		Role:  kernel.RoleUser,
	}
	keys := newFakeKeyRepo()
	svc := apikeysrv.NewAPIKeyService(keys, newFakeUserRepo(owner), hashing.NewBcryptService(4))
	return svc, keys, owner
}

func TestGenerate(t *testing.T) {
	svc, keys, owner := newService(t)

	generated, err := svc.Generate(context.Background(), owner.ID, "ci-pipeline", []apikey.Scope{apikey.ScopeRead, apikey.ScopeWrite})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(generated.RawKey)
	if err != nil {
		t.Fatalf("raw key is not base64: %v", err)
	}
	if string(decoded) == "" {
		t.Fatal("raw key decoded to nothing")
	}

	stored, ok := keys.keys[generated.Key.UUID]
	if !ok {
		t.Fatal("Generate() did not persist the key")
	}
	if stored.KeyHash == generated.RawKey {
		t.Error("stored digest equals the raw key")
	}
	if !stored.HasScope(apikey.ScopeWrite) {
		t.Error("stored key lost its scopes")
	}
}

func TestGenerateScopeValidation(t *testing.T) {
	svc, keys, owner := newService(t)

	// Duplicates collapse; the surviving order is the order of first
	// mention.
	generated, err := svc.Generate(context.Background(), owner.ID, "ci", []apikey.Scope{
		apikey.ScopeRead, apikey.ScopeRead, apikey.ScopeWrite, apikey.ScopeRead,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	stored := keys.keys[generated.Key.UUID]
	want := []apikey.Scope{apikey.ScopeRead, apikey.ScopeWrite}
	if len(stored.Scopes) != len(want) {
		t.Fatalf("stored scopes = %v, want %v", stored.Scopes, want)
	}
	for i := range want {
		if stored.Scopes[i] != want[i] {
			t.Fatalf("stored scopes = %v, want %v", stored.Scopes, want)
		}
	}

	// Anything outside the defined scope set is refused outright, even
	// alongside valid grants.
	_, err = svc.Generate(context.Background(), owner.ID, "ci", []apikey.Scope{
		apikey.ScopeRead, apikey.Scope("bogus"),
	})
	if !errx.IsCode(err, apikey.CodeInvalidScope) {
		t.Fatalf("Generate() error = %v, want %s", err, apikey.CodeInvalidScope.Code)
	}
}

func TestGenerateDefaultsToReadScope(t *testing.T) {
	svc, keys, owner := newService(t)

	generated, err := svc.Generate(context.Background(), owner.ID, "ci", nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	stored := keys.keys[generated.Key.UUID]
	if len(stored.Scopes) != 1 || stored.Scopes[0] != apikey.ScopeRead {
		t.Fatalf("stored scopes = %v, want [%s]", stored.Scopes, apikey.ScopeRead)
	}
}

func TestAuthenticateCarriesScopes(t *testing.T) {
	svc, _, owner := newService(t)

	generated, err := svc.Generate(context.Background(), owner.ID, "ci", []apikey.Scope{apikey.ScopeWrite})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	active, err := svc.Authenticate(context.Background(), generated.RawKey)
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if len(active.Scopes) != 1 || active.Scopes[0] != string(apikey.ScopeWrite) {
		t.Fatalf("Authenticate() scopes = %v, want [%s]", active.Scopes, apikey.ScopeWrite)
	}
}

func TestGenerateUnknownUser(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Generate(context.Background(), kernel.NewUserID(999), "x", nil)
	if !errx.IsCode(err, user.CodeUserNotFound) {
		t.Fatalf("Generate() error = %v, want %s", err, user.CodeUserNotFound.Code)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, owner := newService(t)

	generated, err := svc.Generate(context.Background(), owner.ID, "ci", nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	active, err := svc.Authenticate(context.Background(), generated.RawKey)
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if active.Sub != owner.ID {
		t.Errorf("Authenticate() sub = %v, want %v", active.Sub, owner.ID)
	}
	if active.Email != owner.Email {
		t.Errorf("Authenticate() email = %q, want %q", active.Email, owner.Email)
	}
	if !active.IsAPIKey {
		t.Error("Authenticate() did not mark the principal as a machine credential")
	}
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	svc, _, owner := newService(t)

	generated, err := svc.Generate(context.Background(), owner.ID, "ci", nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	// A forged key reusing a real uuid, a key for an unknown uuid, and
	// garbage input must all produce the same error.
	forged := base64.StdEncoding.EncodeToString([]byte(generated.Key.UUID + " wrong-secret"))
	unknown := base64.StdEncoding.EncodeToString([]byte("deadbeef-0000-0000-0000-000000000000 secret"))

	for name, raw := range map[string]string{
		"forged secret": forged,
		"unknown uuid":  unknown,
		"not base64":    "!!!not-a-key!!!",
		"no separator":  base64.StdEncoding.EncodeToString([]byte("justonepart")),
	} {
		if _, err := svc.Authenticate(context.Background(), raw); !errx.IsCode(err, iam.CodeUnauthenticated) {
			t.Errorf("Authenticate(%s) error = %v, want %s", name, err, iam.CodeUnauthenticated.Code)
		}
	}
}

func TestRevoke(t *testing.T) {
	svc, _, owner := newService(t)

	generated, err := svc.Generate(context.Background(), owner.ID, "ci", nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if err := svc.Revoke(context.Background(), generated.Key.UUID, owner.ID); err != nil {
		t.Fatalf("Revoke() error: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), generated.RawKey); err == nil {
		t.Fatal("Authenticate() accepted a revoked key")
	}

	if err := svc.Revoke(context.Background(), generated.Key.UUID, owner.ID); !errx.IsCode(err, apikey.CodeAPIKeyNotFound) {
		t.Errorf("Revoke() twice error = %v, want %s", err, apikey.CodeAPIKeyNotFound.Code)
	}
}
