package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/churn-prediction-api/internal/repository"
	"github.com/iliyamo/churn-prediction-api/internal/utils"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func newContext(t *testing.T, header string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken("secret", "alice", "user", 30)
	require.NoError(t, err)

	c, rec := newContext(t, "Bearer "+tok.Token)
	err = JWTAuth("secret")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", c.Get("username"))
	assert.Equal(t, "user", c.Get("role"))
}

func TestJWTAuthMissingHeader(t *testing.T) {
	c, rec := newContext(t, "")
	require.NoError(t, JWTAuth("secret")(okHandler)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", "alice", "user", 30)
	require.NoError(t, err)

	c, rec := newContext(t, "Bearer "+tok.Token)
	require.NoError(t, JWTAuth("secret")(okHandler)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	tok, err := utils.NewAccessToken("secret", "alice", "user", -1)
	require.NoError(t, err)

	c, rec := newContext(t, "Bearer "+tok.Token)
	require.NoError(t, JWTAuth("secret")(okHandler)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAllows(t *testing.T) {
	c, rec := newContext(t, "")
	c.Set("role", "admin")

	require.NoError(t, RequireRole("admin")(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejects(t *testing.T) {
	for _, role := range []any{"user", nil, 42} {
		c, rec := newContext(t, "")
		if role != nil {
			c.Set("role", role)
		}
		require.NoError(t, RequireRole("admin")(okHandler)(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}
}

func TestLoadUserStoresRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\?").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
		}).AddRow(3, "alice", "a@b.c", "$2a$hash", "user", true, time.Now(), time.Now()))

	c, rec := newContext(t, "")
	c.Set("username", "alice")

	require.NoError(t, LoadUser(repository.NewUserRepo(db))(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	u, ok := CurrentUser(c)
	require.True(t, ok)
	assert.Equal(t, uint64(3), u.ID)
}

func TestLoadUserUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
		}))

	c, rec := newContext(t, "")
	c.Set("username", "ghost")

	require.NoError(t, LoadUser(repository.NewUserRepo(db))(okHandler)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoadUserDisabledAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
		}).AddRow(3, "alice", "a@b.c", "$2a$hash", "user", false, time.Now(), time.Now()))

	c, rec := newContext(t, "")
	c.Set("username", "alice")

	require.NoError(t, LoadUser(repository.NewUserRepo(db))(okHandler)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
