package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/churn-prediction-api/internal/model"
)

// FeedbackRepo provides persistence for the append-only `feedbacks` ledger.
// Rows are inserted and listed, never updated or deleted. The referenced
// prediction_id is not validated against the predictions table.
type FeedbackRepo struct{ DB *sql.DB }

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{DB: db} }

// Create appends a feedback row and returns the stored record.
func (r *FeedbackRepo) Create(ctx context.Context, predictionID, userID uint64, correct *bool, comment string) (model.Feedback, error) {
	var c sql.NullBool
	if correct != nil {
		c = sql.NullBool{Bool: *correct, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO feedbacks (prediction_id, user_id, correct, comment) VALUES (?,?,?,?)",
		predictionID, userID, c, nullable(comment))
	if err != nil {
		return model.Feedback{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Feedback{}, err
	}
	return r.getByID(ctx, uint64(id))
}

// List returns every feedback row, newest first.
func (r *FeedbackRepo) List(ctx context.Context) ([]model.Feedback, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,prediction_id,user_id,correct,comment,created_at FROM feedbacks ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.PredictionID, &f.UserID, &f.Correct, &f.Comment, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FeedbackRepo) getByID(ctx context.Context, id uint64) (model.Feedback, error) {
	var f model.Feedback
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,prediction_id,user_id,correct,comment,created_at FROM feedbacks WHERE id=? LIMIT 1", id).
		Scan(&f.ID, &f.PredictionID, &f.UserID, &f.Correct, &f.Comment, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Feedback{}, ErrNotFound
	}
	return f, err
}
