package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/churn-prediction-api/internal/middleware"
	"github.com/iliyamo/churn-prediction-api/internal/ml"
	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/pipeline"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
)

// PredictionHandler bundles the pipeline service and prediction persistence
// for the /predict endpoints.
type PredictionHandler struct {
	Pipeline    *pipeline.Service
	Predictions *repository.PredictionRepo
}

func NewPredictionHandler(p *pipeline.Service, preds *repository.PredictionRepo) *PredictionHandler {
	return &PredictionHandler{Pipeline: p, Predictions: preds}
}

type predictionResp struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	InputData   string    `json:"input_data"`
	Prediction  int       `json:"prediction"`
	Probability float64   `json:"probability"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPredictionResp(p model.Prediction) predictionResp {
	return predictionResp{
		ID:          p.ID,
		UserID:      p.UserID,
		InputData:   p.InputData,
		Prediction:  p.Prediction,
		Probability: p.Probability,
		CreatedAt:   p.CreatedAt,
	}
}

// Predict runs the full prediction pipeline for the authenticated user and
// returns the scored result with its persisted id and model version.
func (h *PredictionHandler) Predict(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var rec ml.ChurnRecord
	if err := c.Bind(&rec); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	meta := pipeline.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Pipeline.PredictForUser(ctx, u, &rec, meta)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, pipeline.ErrModelNotRegistered):
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "model record not found in registry"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "prediction failed"})
		}
	}
	return c.JSON(http.StatusOK, res)
}

// List returns every stored prediction. Authentication is required but
// predictions are not user-specific.
func (h *PredictionHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	preds, err := h.Predictions.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]predictionResp, 0, len(preds))
	for _, p := range preds {
		out = append(out, toPredictionResp(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Get fetches one prediction by id; 404 when absent.
func (h *PredictionHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Predictions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "prediction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toPredictionResp(p))
}

// Delete removes one prediction by id; 404 when absent, 204 on success.
func (h *PredictionHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Predictions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "prediction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
