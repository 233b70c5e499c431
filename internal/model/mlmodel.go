package model

import (
	"database/sql"
	"time"
)

// MLModel is a named, versioned registry row in the `models` table. The
// version is stored as a string but compared by numeric ordinal when
// selecting the latest. (name, version) pairs are unique by convention; the
// prediction pipeline resolves exactly one row for the artifacts it serves
// and fails the request when none matches.
type MLModel struct {
	ID          uint64         // models.id
	Name        string         // models.name
	Version     string         // models.version
	Description sql.NullString // models.description
	CreatedAt   time.Time      // models.created_at
}
