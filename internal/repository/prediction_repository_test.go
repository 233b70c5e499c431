package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPredictions(t *testing.T) (*PredictionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPredictionRepo(db), mock
}

func TestPredictionCreateReturnsID(t *testing.T) {
	repo, mock := newPredictions(t)

	mock.ExpectExec("INSERT INTO predictions").
		WithArgs(uint64(7), `{"x":1}`, 1, 0.91).
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := repo.Create(context.Background(), 7, `{"x":1}`, 1, 0.91)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestPredictionGetByIDNotFound(t *testing.T) {
	repo, mock := newPredictions(t)

	mock.ExpectQuery("SELECT .+ FROM predictions WHERE id=\\?").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "input_data", "prediction", "probability", "created_at",
		}))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPredictionDelete(t *testing.T) {
	repo, mock := newPredictions(t)

	mock.ExpectExec("DELETE FROM predictions WHERE id=\\?").
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 42))
}

func TestPredictionDeleteNotFound(t *testing.T) {
	repo, mock := newPredictions(t)

	mock.ExpectExec("DELETE FROM predictions WHERE id=\\?").
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 42), ErrNotFound)
}

func TestPredictionListNewestFirst(t *testing.T) {
	repo, mock := newPredictions(t)

	mock.ExpectQuery("SELECT .+ FROM predictions ORDER BY id DESC").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "input_data", "prediction", "probability", "created_at",
		}).
			AddRow(2, 7, "{}", 0, 0.2, time.Now()).
			AddRow(1, 7, "{}", 1, 0.9, time.Now()))

	ps, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, uint64(2), ps[0].ID)
	assert.Equal(t, uint64(1), ps[1].ID)
}

func TestModelFindExactVersionOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewModelRepo(db)

	mock.ExpectQuery("SELECT .+ FROM models WHERE name=\\? AND version=\\?").
		WithArgs("churn", "3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "version", "description", "created_at"}))

	_, err = repo.Find(context.Background(), "churn", "3")
	assert.ErrorIs(t, err, ErrNotFound)
}
