package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/churn-prediction-api/internal/repository"
)

func newUsers(t *testing.T) (*repository.UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewUserRepo(db), mock
}

func userRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
	}).AddRow(1, "admin", "admin@example.com", "$2a$hash", "admin", true, time.Now(), time.Now())
}

func TestEnsureDefaultAdminMissingConfig(t *testing.T) {
	users, _ := newUsers(t)
	for _, tc := range []struct{ username, email, password string }{
		{"", "a@b.c", "pw"},
		{"admin", "", "pw"},
		{"admin", "a@b.c", ""},
	} {
		err := EnsureDefaultAdmin(context.Background(), users, tc.username, tc.email, tc.password, 4)
		require.ErrorIs(t, err, ErrMissingConfig)
	}
}

func TestEnsureDefaultAdminAlreadyExists(t *testing.T) {
	users, mock := newUsers(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\? OR email=\\?").
		WithArgs("admin", "admin@example.com").
		WillReturnRows(userRow())

	err := EnsureDefaultAdmin(context.Background(), users, "admin", "admin@example.com", "s3cret", 4)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDefaultAdminCreates(t *testing.T) {
	users, mock := newUsers(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\? OR email=\\?").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("admin", "admin@example.com", sqlmock.AnyArg(), "admin").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := EnsureDefaultAdmin(context.Background(), users, "admin", "admin@example.com", "s3cret", 4)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDefaultAdminLostRace(t *testing.T) {
	users, mock := newUsers(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\? OR email=\\?").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'admin' for key 'uq_users_username'"))

	err := EnsureDefaultAdmin(context.Background(), users, "admin", "admin@example.com", "s3cret", 4)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDefaultAdminOtherError(t *testing.T) {
	users, mock := newUsers(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\? OR email=\\?").
		WillReturnError(errors.New("connection refused"))

	err := EnsureDefaultAdmin(context.Background(), users, "admin", "admin@example.com", "s3cret", 4)
	require.Error(t, err)
}
