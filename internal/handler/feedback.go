package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/churn-prediction-api/internal/middleware"
	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
)

// FeedbackHandler serves the append-only feedback ledger.
type FeedbackHandler struct {
	Feedbacks *repository.FeedbackRepo
}

func NewFeedbackHandler(f *repository.FeedbackRepo) *FeedbackHandler {
	return &FeedbackHandler{Feedbacks: f}
}

type feedbackReq struct {
	PredictionID uint64 `json:"prediction_id"`
	Correct      *bool  `json:"correct"`
	Comment      string `json:"comment"`
}

type feedbackResp struct {
	ID           uint64    `json:"id"`
	PredictionID uint64    `json:"prediction_id"`
	UserID       uint64    `json:"user_id"`
	Correct      *bool     `json:"correct"`
	Comment      *string   `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

func toFeedbackResp(f model.Feedback) feedbackResp {
	out := feedbackResp{
		ID:           f.ID,
		PredictionID: f.PredictionID,
		UserID:       f.UserID,
		CreatedAt:    f.CreatedAt,
	}
	if f.Correct.Valid {
		v := f.Correct.Bool
		out.Correct = &v
	}
	if f.Comment.Valid {
		v := f.Comment.String
		out.Comment = &v
	}
	return out
}

// Create appends a feedback row for the authenticated user. The referenced
// prediction_id is accepted as-is; the ledger tolerates orphans.
func (h *FeedbackHandler) Create(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req feedbackReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PredictionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prediction_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Feedbacks.Create(ctx, req.PredictionID, u.ID, req.Correct, req.Comment)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create feedback failed"})
	}
	return c.JSON(http.StatusCreated, toFeedbackResp(f))
}

// List returns every feedback row. Admin only (enforced by route middleware).
func (h *FeedbackHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fs, err := h.Feedbacks.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]feedbackResp, 0, len(fs))
	for _, f := range fs {
		out = append(out, toFeedbackResp(f))
	}
	return c.JSON(http.StatusOK, out)
}
