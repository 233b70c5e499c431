// Package bootstrap contains startup routines that must complete before the
// server accepts traffic.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
)

// ErrMissingConfig is returned when any of the admin bootstrap credentials
// is absent from the environment.
var ErrMissingConfig = errors.New("missing admin bootstrap configuration")

// EnsureDefaultAdmin guarantees one privileged account exists. Idempotent:
// when a user already matches the configured username or email, nothing is
// written. The uniqueness constraints on users.username and users.email are
// the real safety net should two processes race through the existence check.
func EnsureDefaultAdmin(ctx context.Context, users *repository.UserRepo, username, email, password string, bcryptCost int) error {
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("%w: ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD are required", ErrMissingConfig)
	}

	_, err := users.GetByUsernameOrEmail(ctx, username, email)
	if err == nil {
		log.Printf("bootstrap: admin %q already exists", username)
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	id, err := users.Create(ctx, username, email, password, model.RoleAdmin, bcryptCost)
	if err != nil {
		// lost the race against another process creating the same account
		if errors.Is(err, repository.ErrUsernameExists) || errors.Is(err, repository.ErrEmailExists) {
			return nil
		}
		return err
	}
	log.Printf("bootstrap: default admin %q created (id=%d)", username, id)
	return nil
}
