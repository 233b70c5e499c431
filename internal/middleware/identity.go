package middleware

// identity.go resolves the authenticated user's database row from the
// username stored in the context by JWTAuth. Keeping the lookup in one
// middleware means a revoked or deactivated account is rejected on its next
// request even while its token is still formally valid.

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
)

// currentUserKey is the context key under which the resolved user row is
// stored.
const currentUserKey = "current_user"

// LoadUser returns a middleware that fetches the user row for the token
// subject and stores it in the context. Must run after JWTAuth.
func LoadUser(users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			username, _ := c.Get("username").(string)
			if username == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByUsername(ctx, username)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
			}

			c.Set(currentUserKey, u)
			return next(c)
		}
	}
}

// CurrentUser extracts the resolved user row stored by LoadUser.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(currentUserKey).(model.User)
	return u, ok
}
