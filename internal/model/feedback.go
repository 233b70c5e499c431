package model

import (
	"database/sql"
	"time"
)

// Feedback is one append-only correctness judgment on a past prediction.
// Many feedback rows may reference one prediction and the referenced
// prediction is not required to exist (the ledger accepts orphans).
type Feedback struct {
	ID           uint64         // feedbacks.id
	PredictionID uint64         // feedbacks.prediction_id
	UserID       uint64         // feedbacks.user_id (submitter)
	Correct      sql.NullBool   // feedbacks.correct
	Comment      sql.NullString // feedbacks.comment
	CreatedAt    time.Time      // feedbacks.created_at
}
