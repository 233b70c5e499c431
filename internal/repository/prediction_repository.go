package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/churn-prediction-api/internal/model"
)

// PredictionRepo provides persistence for the `predictions` table.
type PredictionRepo struct{ DB *sql.DB }

func NewPredictionRepo(db *sql.DB) *PredictionRepo { return &PredictionRepo{DB: db} }

const predictionColumns = "id,user_id,input_data,prediction,probability,created_at"

// Create inserts a scored prediction and returns its ID. This is the first
// durable commit of a pipeline run.
func (r *PredictionRepo) Create(ctx context.Context, userID uint64, inputData string, label int, probability float64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO predictions (user_id, input_data, prediction, probability) VALUES (?,?,?,?)",
		userID, inputData, label, probability)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a prediction by id.
func (r *PredictionRepo) GetByID(ctx context.Context, id uint64) (model.Prediction, error) {
	var p model.Prediction
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+predictionColumns+" FROM predictions WHERE id=? LIMIT 1", id).
		Scan(&p.ID, &p.UserID, &p.InputData, &p.Prediction, &p.Probability, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Prediction{}, ErrNotFound
	}
	return p, err
}

// List returns every prediction, newest first. Predictions are not
// user-scoped: any authenticated caller sees the full collection.
func (r *PredictionRepo) List(ctx context.Context) ([]model.Prediction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+predictionColumns+" FROM predictions ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Prediction
	for rows.Next() {
		var p model.Prediction
		if err := rows.Scan(&p.ID, &p.UserID, &p.InputData, &p.Prediction, &p.Probability, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a prediction by id. ErrNotFound when no row matched.
// Metadata and log rows cascade with the prediction; feedback rows are kept
// and may end up referencing a prediction that no longer exists.
func (r *PredictionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM predictions WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
