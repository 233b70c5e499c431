// Package queue defines message payloads exchanged over the message broker.
package queue

// PredictionScoredEvent is published after a prediction pipeline run commits
// its records. It carries enough information for downstream consumers to
// log, alert on churn risk, or feed analytics without querying the primary
// database.
type PredictionScoredEvent struct {
	PredictionID uint64  `json:"prediction_id"`
	UserID       uint64  `json:"user_id"`
	Username     string  `json:"username"`
	Label        int     `json:"label"`
	Probability  float64 `json:"probability"`
	ModelName    string  `json:"model_name"`
	ModelVersion string  `json:"model_version"`
	ScoredAt     string  `json:"scored_at"`
}
