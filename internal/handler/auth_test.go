package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/churn-prediction-api/internal/config"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
	"github.com/iliyamo/churn-prediction-api/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    "test-secret",
		AccessTTLMin: 30,
		BcryptCost:   4,
	}
}

func errDuplicate(key string) error {
	return fmt.Errorf("Error 1062 (23000): Duplicate entry 'x' for key '%s'", key)
}

func newAuth(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthHandler(testConfig(), repository.NewUserRepo(db)), mock
}

func jsonRequest(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func formRequest(t *testing.T, target string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegisterCreatesUser(t *testing.T) {
	h, mock := newAuth(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), "user").
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := jsonRequest(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"Alice@Example.com","password":"s3cret"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "User registered successfully")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h, mock := newAuth(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errDuplicate("uq_users_username"))

	c, rec := jsonRequest(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"a@b.c","password":"pw"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username already taken")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock := newAuth(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errDuplicate("uq_users_email"))

	c, rec := jsonRequest(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"a@b.c","password":"pw"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already taken")
}

func TestRegisterMissingFields(t *testing.T) {
	h, _ := newAuth(t)

	c, rec := jsonRequest(t, http.MethodPost, "/auth/register", `{"username":"alice"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginIssuesToken(t *testing.T) {
	h, mock := newAuth(t)

	hash, err := utils.HashPassword("s3cret", 4)
	require.NoError(t, err)
	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\?").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
		}).AddRow(1, "alice", "a@b.c", hash, "user", true, time.Now(), time.Now()))

	c, rec := formRequest(t, "/auth/login", url.Values{
		"username": {"alice"},
		"password": {"s3cret"},
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock := newAuth(t)

	hash, err := utils.HashPassword("s3cret", 4)
	require.NoError(t, err)
	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
		}).AddRow(1, "alice", "a@b.c", hash, "user", true, time.Now(), time.Now()))

	c, rec := formRequest(t, "/auth/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid username or password")
}

func TestLoginUnknownUser(t *testing.T) {
	h, mock := newAuth(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
		}))

	c, rec := formRequest(t, "/auth/login", url.Values{
		"username": {"ghost"},
		"password": {"pw"},
	})
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
