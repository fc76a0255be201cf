// Package userinfra contains the PostgreSQL implementation of the user
// repository.
package userinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

const uniqueViolation = "23505"

// PostgresUserRepository is the PostgreSQL implementation of user.Repository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new repository instance.
func NewPostgresUserRepository(db *sqlx.DB) user.Repository {
	return &PostgresUserRepository{db: db}
}

// Create inserts a new user and returns it with its assigned id.
func (r *PostgresUserRepository) Create(ctx context.Context, input user.CreateInput) (*user.User, error) {
	role := input.Role
	if role == "" {
		role = kernel.RoleUser
	}

	query := `
		INSERT INTO users (email, name, password_hash, role, google_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	var (
		id        int64
		createdAt time.Time
	)
	err := r.db.QueryRowxContext(ctx, query,
		input.Email,
		input.Name,
		nullString(input.PasswordHash),
		role.String(),
		nullString(input.GoogleID),
	).Scan(&id, &createdAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, user.ErrUserExists()
		}
		return nil, errx.Wrap(err, "failed to create user", errx.TypeInternal)
	}

	return &user.User{
		ID:           kernel.NewUserID(id),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: input.PasswordHash,
		Role:         role,
		GoogleID:     input.GoogleID,
		CreatedAt:    createdAt,
	}, nil
}

// FindByEmail returns the user with the given email, including the password hash.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var row userPersistence
	query := `SELECT * FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal)
	}
	return toDomain(row), nil
}

// FindByGoogleID returns the user bound to the external subject id.
func (r *PostgresUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*user.User, error) {
	var row userPersistence
	query := `SELECT * FROM users WHERE google_id = $1`
	if err := r.db.GetContext(ctx, &row, query, googleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user by google id", errx.TypeInternal)
	}
	return toDomain(row), nil
}

// FindByID returns the user with the given id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	var row userPersistence
	query := `SELECT * FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id.Int64()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user by id", errx.TypeInternal)
	}
	return toDomain(row), nil
}

// Update applies the patch to the user with the given id.
func (r *PostgresUserRepository) Update(ctx context.Context, id kernel.UserID, patch user.Patch) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		addSet("name", *patch.Name)
	}
	if patch.PasswordHash != nil {
		addSet("password_hash", nullString(*patch.PasswordHash))
	}
	if patch.Role != nil {
		addSet("role", patch.Role.String())
	}
	if patch.TOTPSecret != nil {
		addSet("totp_secret", nullString(*patch.TOTPSecret))
	}
	if patch.OTPEnabled != nil {
		addSet("otp_enabled", *patch.OTPEnabled)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id.Int64())
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errx.Wrap(err, "failed to update user", errx.TypeInternal).
			WithDetail("user_id", id.Int64())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on update", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return user.ErrUserNotFound()
	}
	return nil
}

// List returns a page of users ordered by id.
func (r *PostgresUserRepository) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[user.User], error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return kernel.Paginated[user.User]{}, errx.Wrap(err, "failed to count users", errx.TypeInternal)
	}

	var rows []userPersistence
	query := `SELECT * FROM users ORDER BY id LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, size, (page-1)*size); err != nil {
		return kernel.Paginated[user.User]{}, errx.Wrap(err, "failed to list users", errx.TypeInternal)
	}

	items := make([]user.User, 0, len(rows))
	for _, row := range rows {
		items = append(items, *toDomain(row))
	}

	return kernel.NewPaginated(items, page, size, total), nil
}

// Struct auxiliar for persistence that handles DB-specific nullable types.
type userPersistence struct {
	ID           int64          `db:"id"`
	Email        string         `db:"email"`
	Name         sql.NullString `db:"name"`
	PasswordHash sql.NullString `db:"password_hash"`
	Role         string         `db:"role"`
	GoogleID     sql.NullString `db:"google_id"`
	TOTPSecret   sql.NullString `db:"totp_secret"`
	OTPEnabled   bool           `db:"otp_enabled"`
	CreatedAt    time.Time      `db:"created_at"`
}

func toDomain(p userPersistence) *user.User {
	return &user.User{
		ID:           kernel.NewUserID(p.ID),
		Email:        p.Email,
		Name:         p.Name.String,
		PasswordHash: p.PasswordHash.String,
		Role:         kernel.Role(p.Role),
		GoogleID:     p.GoogleID.String,
		TOTPSecret:   p.TOTPSecret.String,
		OTPEnabled:   p.OTPEnabled,
		CreatedAt:    p.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
