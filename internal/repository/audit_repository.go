package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/churn-prediction-api/internal/model"
)

// MetadataRepo provides persistence for the `prediction_metadata` table,
// which binds each prediction to the registry row of the model that scored
// it. The unique key on prediction_id guarantees at most one binding.
type MetadataRepo struct{ DB *sql.DB }

func NewMetadataRepo(db *sql.DB) *MetadataRepo { return &MetadataRepo{DB: db} }

// Create links a prediction to a model registry row.
func (r *MetadataRepo) Create(ctx context.Context, predictionID, modelID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO prediction_metadata (prediction_id, model_id) VALUES (?,?)",
		predictionID, modelID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByPrediction returns the metadata row for a prediction, or ErrNotFound.
// Useful for integrity checks over partially completed pipeline runs.
func (r *MetadataRepo) FindByPrediction(ctx context.Context, predictionID uint64) (model.PredictionMetadata, error) {
	var m model.PredictionMetadata
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,prediction_id,model_id,created_at FROM prediction_metadata WHERE prediction_id=? LIMIT 1",
		predictionID).
		Scan(&m.ID, &m.PredictionID, &m.ModelID, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return model.PredictionMetadata{}, ErrNotFound
	}
	return m, err
}

// LogRepo provides persistence for the `prediction_logs` audit table.
type LogRepo struct{ DB *sql.DB }

func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{DB: db} }

// Create appends one audit row for a prediction request. IP and user agent
// may be empty; empty strings are stored as NULL.
func (r *LogRepo) Create(ctx context.Context, predictionID, userID uint64, requestIP, userAgent string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO prediction_logs (prediction_id, user_id, request_ip, user_agent) VALUES (?,?,?,?)",
		predictionID, userID, nullable(requestIP), nullable(userAgent))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns every audit row, newest first.
func (r *LogRepo) List(ctx context.Context) ([]model.PredictionLog, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,prediction_id,user_id,request_ip,user_agent,created_at FROM prediction_logs ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PredictionLog
	for rows.Next() {
		var l model.PredictionLog
		if err := rows.Scan(&l.ID, &l.PredictionID, &l.UserID, &l.RequestIP, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
