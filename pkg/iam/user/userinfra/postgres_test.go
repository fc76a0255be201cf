package userinfra_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/iam/user/userinfra"
	"github.com/roastery-dev/roastery/pkg/kernel"
	"github.com/roastery-dev/roastery/pkg/ptrx"
)

func newMockRepo(t *testing.T) (user.Repository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := userinfra.NewPostgresUserRepository(sqlxDB)
	return repo, mock, func() { db.Close() }
}

func userColumns() []string {
	return []string{"id", "email", "name", "password_hash", "role", "google_id", "totp_secret", "otp_enabled", "created_at"}
}

func TestCreate(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	createdAt := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("ada@example.com", "Ada", sqlmock.AnyArg(), "user", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), createdAt))

	got, err := repo.Create(context.Background(), user.CreateInput{
		Email:        "ada@example.com",
		Name:         "Ada",
		PasswordHash: "$2a$12$hash",
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if got.ID != kernel.NewUserID(7) {
		t.Errorf("Create() id = %v, want 7", got.ID)
	}
	if got.Role != kernel.RoleUser {
		t.Errorf("Create() role = %q, want %q", got.Role, kernel.RoleUser)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := repo.Create(context.Background(), user.CreateInput{Email: "dup@example.com"})
	if !errx.IsCode(err, user.CodeUserExists) {
		t.Fatalf("Create() error = %v, want %s", err, user.CodeUserExists.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFindByEmail(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows(userColumns()).AddRow(
		int64(3), "ada@example.com", "Ada", "$2a$12$hash", "admin",
		sql.NullString{}, sql.NullString{}, false, time.Now().UTC(),
	)
	mock.ExpectQuery("SELECT \\* FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error: %v", err)
	}
	if got.Role != kernel.RoleAdmin {
		t.Errorf("FindByEmail() role = %q, want admin", got.Role)
	}
	if got.PasswordHash != "$2a$12$hash" {
		t.Errorf("FindByEmail() password hash not loaded")
	}
}

func TestFindByEmailNotFound(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	if !errx.IsCode(err, user.CodeUserNotFound) {
		t.Fatalf("FindByEmail() error = %v, want %s", err, user.CodeUserNotFound.Code)
	}
}

func TestFindByGoogleID(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows(userColumns()).AddRow(
		int64(9), "fed@example.com", "Fed", sql.NullString{}, "user",
		"google-sub-123", sql.NullString{}, false, time.Now().UTC(),
	)
	mock.ExpectQuery("SELECT \\* FROM users WHERE google_id").
		WithArgs("google-sub-123").
		WillReturnRows(rows)

	got, err := repo.FindByGoogleID(context.Background(), "google-sub-123")
	if err != nil {
		t.Fatalf("FindByGoogleID() error: %v", err)
	}
	if !got.IsFederated() {
		t.Errorf("FindByGoogleID() expected federated user")
	}
	if got.HasPassword() {
		t.Errorf("FindByGoogleID() expected no password hash")
	}
}

func TestUpdate(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users SET").
		WithArgs(sqlmock.AnyArg(), true, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), kernel.NewUserID(3), user.Patch{
		TOTPSecret: ptrx.String("JBSWY3DPEHPK3PXP"),
		OTPEnabled: ptrx.Bool(true),
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), kernel.NewUserID(404), user.Patch{Name: ptrx.String("Nobody")})
	if !errx.IsCode(err, user.CodeUserNotFound) {
		t.Fatalf("Update() error = %v, want %s", err, user.CodeUserNotFound.Code)
	}
}

func TestUpdateEmptyPatch(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	if err := repo.Update(context.Background(), kernel.NewUserID(1), user.Patch{}); err != nil {
		t.Fatalf("Update() with empty patch should be a no-op, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestUpdateQueryError(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users SET").
		WillReturnError(errors.New("connection reset"))

	err := repo.Update(context.Background(), kernel.NewUserID(1), user.Patch{Name: ptrx.String("x")})
	if err == nil {
		t.Fatal("Update() expected error")
	}
	var e *errx.Error
	if !errx.As(err, &e) || e.Type != errx.TypeInternal {
		t.Errorf("Update() error type = %v, want internal", err)
	}
}

func TestList(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery("SELECT \\* FROM users ORDER BY id").
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(int64(21), "ada@example.com", sql.NullString{String: "Ada", Valid: true},
				sql.NullString{String: "$2a$12$hash", Valid: true}, "user",
				sql.NullString{}, sql.NullString{}, false, time.Now()).
			AddRow(int64(22), "bot@roastery.dev", sql.NullString{},
				sql.NullString{}, "admin",
				sql.NullString{String: "google-sub-1", Valid: true}, sql.NullString{}, false, time.Now()))

	page, err := repo.List(context.Background(), kernel.PaginationOptions{Page: 2, PageSize: 20})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("List() items = %d, want 2", len(page.Items))
	}
	if page.Page.Total != 42 || page.Page.Pages != 3 {
		t.Errorf("pagination = %+v, want total 42 over 3 pages", page.Page)
	}
	if !page.HasNext() || !page.HasPrevious() {
		t.Errorf("page 2 of 3 should have neighbors: %+v", page.Page)
	}
	if !page.Items[1].IsFederated() {
		t.Errorf("second row should be federated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListDefaultsPagination(t *testing.T) {
	repo, mock, cleanup := newMockRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT \\* FROM users ORDER BY id").
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(userColumns()))

	page, err := repo.List(context.Background(), kernel.PaginationOptions{Page: -3, PageSize: 5000})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if !page.Empty {
		t.Errorf("expected empty page, got %+v", page)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
