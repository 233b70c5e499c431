// Package pipeline implements the prediction request pipeline: transform,
// classify, then durably record the prediction, its model binding and a
// request audit log, tied together by the prediction id. Each persistence
// step is its own commit point; there is no wrapping transaction. The scored
// result is written first so a failure in later bookkeeping never loses it.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/churn-prediction-api/internal/artifact"
	"github.com/iliyamo/churn-prediction-api/internal/ml"
	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/queue"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
	queue_publisher "github.com/iliyamo/churn-prediction-api/internal/service"
)

// ErrInvalidInput is returned when the submitted record fails schema
// validation. Nothing has been written. Handlers translate it to a 400.
var ErrInvalidInput = errors.New("invalid input")

// ErrModelFailure is returned when transform or classification fails
// internally. Nothing has been written. Handlers translate it to a 500.
var ErrModelFailure = errors.New("model failure")

// ErrModelNotRegistered is returned when no registry row matches the loaded
// artifacts. The prediction row written in the preceding step remains; the
// inconsistency is reconcilable, not rolled back.
var ErrModelNotRegistered = errors.New("model not registered")

// ErrPersistence is returned when a durable write fails. Depending on the
// step, earlier rows of the run may remain.
var ErrPersistence = errors.New("persistence failure")

// RequestMeta carries the HTTP request context recorded in the audit log.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Result is the successful outcome of one pipeline run.
type Result struct {
	User         string  `json:"user"`
	Prediction   int     `json:"prediction"`
	Probability  float64 `json:"probability"`
	PredictionID uint64  `json:"prediction_id"`
	ModelVersion string  `json:"model_version"`
}

// publishScored is a seam for tests; production code publishes to RabbitMQ.
var publishScored = queue_publisher.PublishPredictionScored

// Service orchestrates one pipeline run per request. The artifact store is
// shared and read-only; the repositories are the only mutable resource.
type Service struct {
	Artifacts   *artifact.Store
	Models      *repository.ModelRepo
	Predictions *repository.PredictionRepo
	Metadata    *repository.MetadataRepo
	Logs        *repository.LogRepo
}

func NewService(store *artifact.Store, models *repository.ModelRepo, predictions *repository.PredictionRepo, metadata *repository.MetadataRepo, logs *repository.LogRepo) *Service {
	return &Service{
		Artifacts:   store,
		Models:      models,
		Predictions: predictions,
		Metadata:    metadata,
		Logs:        logs,
	}
}

// PredictForUser runs the full pipeline for one request.
//
// Commit points, in order: the prediction row is the first durable write;
// the registry binding and the audit log follow. A failure after the
// prediction row is committed leaves that row in place deliberately.
func (s *Service) PredictForUser(ctx context.Context, user model.User, rec *ml.ChurnRecord, meta RequestMeta) (Result, error) {
	pipe := s.Artifacts.Pipeline()
	clf := s.Artifacts.Classifier()
	if pipe == nil || clf == nil {
		return Result{}, fmt.Errorf("%w: artifacts not loaded", ErrModelFailure)
	}

	// 1-2. validate + transform + classify; nothing persisted on failure
	features, err := pipe.Transform(rec)
	if err != nil {
		if errors.Is(err, ml.ErrSchema) {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return Result{}, fmt.Errorf("%w: %v", ErrModelFailure, err)
	}
	label, prob, err := clf.Predict(features)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrModelFailure, err)
	}

	// snapshot of the exact record submitted, stored alongside the score
	snapshot, err := json.Marshal(rec)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrModelFailure, err)
	}

	// 3. first durable commit: the scientifically meaningful result
	predictionID, err := s.Predictions.Create(ctx, user.ID, string(snapshot), label, prob)
	if err != nil {
		return Result{}, fmt.Errorf("%w: prediction row: %v", ErrPersistence, err)
	}

	// 4. resolve the registry row matching the loaded artifacts, exact
	// (name, version) only. Absence is a configuration error; the
	// prediction row above stays as a reconcilable orphan.
	name, version := s.Artifacts.Name(), s.Artifacts.Version()
	mdl, err := s.Models.Find(ctx, name, version)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{}, fmt.Errorf("%w: %s v%s (prediction %d recorded without metadata)",
				ErrModelNotRegistered, name, version, predictionID)
		}
		return Result{}, fmt.Errorf("%w: model lookup: %v", ErrPersistence, err)
	}

	// 5. bind prediction to the registry row
	if _, err := s.Metadata.Create(ctx, predictionID, mdl.ID); err != nil {
		return Result{}, fmt.Errorf("%w: metadata row: %v", ErrPersistence, err)
	}

	// 6. audit log with requester context
	if _, err := s.Logs.Create(ctx, predictionID, user.ID, meta.IP, meta.UserAgent); err != nil {
		return Result{}, fmt.Errorf("%w: log row: %v", ErrPersistence, err)
	}

	// 7. best-effort event publish; the run already succeeded
	ev := queue.PredictionScoredEvent{
		PredictionID: predictionID,
		UserID:       user.ID,
		Username:     user.Username,
		Label:        label,
		Probability:  prob,
		ModelName:    name,
		ModelVersion: version,
		ScoredAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := publishScored(ctx, ev); err != nil {
		log.Printf("pipeline: event publish failed for prediction %d: %v", predictionID, err)
	}

	return Result{
		User:         user.Username,
		Prediction:   label,
		Probability:  prob,
		PredictionID: predictionID,
		ModelVersion: version,
	}, nil
}
