package model

import (
	"database/sql"
	"time"
)

// Prediction is one scored inference as stored in the `predictions` table.
// InputData holds the canonical JSON snapshot of the submitted feature
// record. Rows are immutable after creation except for deletion by id.
type Prediction struct {
	ID          uint64    // predictions.id
	UserID      uint64    // predictions.user_id
	InputData   string    // predictions.input_data (JSON snapshot)
	Prediction  int       // predictions.prediction (0 = stays, 1 = churns)
	Probability float64   // predictions.probability of the churn class
	CreatedAt   time.Time // predictions.created_at
}

// PredictionMetadata binds a prediction to the registry row of the model that
// produced it. At most one metadata row exists per prediction; its absence
// signals a partially completed pipeline run.
type PredictionMetadata struct {
	ID           uint64    // prediction_metadata.id
	PredictionID uint64    // prediction_metadata.prediction_id (unique)
	ModelID      uint64    // prediction_metadata.model_id
	CreatedAt    time.Time // prediction_metadata.created_at
}

// PredictionLog is the audit record of the HTTP request context behind a
// prediction. IP and user agent are optional.
type PredictionLog struct {
	ID           uint64         // prediction_logs.id
	PredictionID uint64         // prediction_logs.prediction_id
	UserID       uint64         // prediction_logs.user_id
	RequestIP    sql.NullString // prediction_logs.request_ip
	UserAgent    sql.NullString // prediction_logs.user_agent
	CreatedAt    time.Time      // prediction_logs.created_at
}
