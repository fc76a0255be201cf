package apikeyinfra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam/apikey"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

// PostgresAPIKeyRepository is the PostgreSQL implementation of apikey.Repository.
type PostgresAPIKeyRepository struct {
	db *sqlx.DB
}

// NewPostgresAPIKeyRepository creates a new repository instance.
func NewPostgresAPIKeyRepository(db *sqlx.DB) apikey.Repository {
	return &PostgresAPIKeyRepository{db: db}
}

// Save inserts a new key record and fills in its assigned id.
func (r *PostgresAPIKeyRepository) Save(ctx context.Context, key *apikey.APIKey) error {
	query := `
		INSERT INTO api_keys (uuid, key_hash, user_id, name, scopes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		key.UUID,
		key.KeyHash,
		key.UserID.Int64(),
		key.Name,
		scopesToArray(key.Scopes),
		key.CreatedAt,
	).Scan(&key.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return apikey.ErrAPIKeyInvalid().WithDetail("reason", "key uuid already exists")
		}
		return errx.Wrap(err, "failed to save API key", errx.TypeInternal).
			WithDetail("key_uuid", key.UUID)
	}
	return nil
}

// FindByUUID returns the key with the given uuid.
func (r *PostgresAPIKeyRepository) FindByUUID(ctx context.Context, uuid string) (*apikey.APIKey, error) {
	var row apiKeyPersistence
	query := `SELECT * FROM api_keys WHERE uuid = $1`
	if err := r.db.GetContext(ctx, &row, query, uuid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apikey.ErrAPIKeyNotFound()
		}
		return nil, errx.Wrap(err, "failed to find API key by uuid", errx.TypeInternal)
	}
	key := toDomain(row)
	return &key, nil
}

// FindByUser returns every key owned by the user.
func (r *PostgresAPIKeyRepository) FindByUser(ctx context.Context, userID kernel.UserID) ([]*apikey.APIKey, error) {
	var rows []apiKeyPersistence
	query := `SELECT * FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID.Int64()); err != nil {
		return nil, errx.Wrap(err, "failed to find API keys by user", errx.TypeInternal)
	}

	keys := make([]*apikey.APIKey, 0, len(rows))
	for _, row := range rows {
		key := toDomain(row)
		keys = append(keys, &key)
	}
	return keys, nil
}

// Delete removes the key with the given uuid when it belongs to the user.
func (r *PostgresAPIKeyRepository) Delete(ctx context.Context, uuid string, userID kernel.UserID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE uuid = $1 AND user_id = $2`, uuid, userID.Int64())
	if err != nil {
		return errx.Wrap(err, "failed to delete API key", errx.TypeInternal)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on delete", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return apikey.ErrAPIKeyNotFound()
	}
	return nil
}

// Struct auxiliar for persistence that handles DB-specific types.
type apiKeyPersistence struct {
	ID        int64          `db:"id"`
	UUID      string         `db:"uuid"`
	KeyHash   string         `db:"key_hash"`
	UserID    int64          `db:"user_id"`
	Name      string         `db:"name"`
	Scopes    pq.StringArray `db:"scopes"`
	CreatedAt time.Time      `db:"created_at"`
}

func toDomain(p apiKeyPersistence) apikey.APIKey {
	scopes := make([]apikey.Scope, 0, len(p.Scopes))
	for _, s := range p.Scopes {
		scopes = append(scopes, apikey.Scope(s))
	}
	return apikey.APIKey{
		ID:        p.ID,
		UUID:      p.UUID,
		KeyHash:   p.KeyHash,
		UserID:    kernel.NewUserID(p.UserID),
		Name:      p.Name,
		Scopes:    scopes,
		CreatedAt: p.CreatedAt,
	}
}

func scopesToArray(scopes []apikey.Scope) pq.StringArray {
	arr := make(pq.StringArray, 0, len(scopes))
	for _, s := range scopes {
		arr = append(arr, string(s))
	}
	return arr
}
