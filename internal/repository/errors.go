// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// and the prediction pipeline to distinguish failure scenarios without
// inspecting driver-specific errors.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a lookup by id or by (name, version) matches
// no row. Handlers translate this into an HTTP 404; the prediction pipeline
// translates a missing model row into a fatal configuration error.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when an insert violates the users.username
// uniqueness constraint. Handlers translate this into an HTTP 400.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when an insert violates the users.email
// uniqueness constraint.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
