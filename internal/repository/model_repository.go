package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/churn-prediction-api/internal/model"
)

// ModelRepo provides persistence for the `models` registry table.
type ModelRepo struct{ DB *sql.DB }

func NewModelRepo(db *sql.DB) *ModelRepo { return &ModelRepo{DB: db} }

const modelColumns = "id,name,version,description,created_at"

// Create inserts a new registry row. Registration never overwrites an
// existing row; registering the same (name, version) twice simply produces
// two rows, which the convention forbids but the schema tolerates.
func (r *ModelRepo) Create(ctx context.Context, name, version, description string) (model.MLModel, error) {
	var desc sql.NullString
	if description != "" {
		desc = sql.NullString{String: description, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO models (name, version, description) VALUES (?,?,?)",
		name, version, desc)
	if err != nil {
		return model.MLModel{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MLModel{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Find resolves a registry row by exact (name, version). There is no
// fallback to "latest": the pipeline must match the artifact it has loaded,
// not whatever is newest upstream.
func (r *ModelRepo) Find(ctx context.Context, name, version string) (model.MLModel, error) {
	var m model.MLModel
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+modelColumns+" FROM models WHERE name=? AND version=? LIMIT 1",
		name, version).
		Scan(&m.ID, &m.Name, &m.Version, &m.Description, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MLModel{}, ErrNotFound
	}
	return m, err
}

// GetByID fetches a registry row by id.
func (r *ModelRepo) GetByID(ctx context.Context, id uint64) (model.MLModel, error) {
	var m model.MLModel
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+modelColumns+" FROM models WHERE id=? LIMIT 1", id).
		Scan(&m.ID, &m.Name, &m.Version, &m.Description, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MLModel{}, ErrNotFound
	}
	return m, err
}

// List returns every registry row, newest first.
func (r *ModelRepo) List(ctx context.Context) ([]model.MLModel, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+modelColumns+" FROM models ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MLModel
	for rows.Next() {
		var m model.MLModel
		if err := rows.Scan(&m.ID, &m.Name, &m.Version, &m.Description, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
