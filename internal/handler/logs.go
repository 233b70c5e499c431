package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
)

// LogHandler exposes the request audit trail.
type LogHandler struct {
	Logs *repository.LogRepo
}

func NewLogHandler(l *repository.LogRepo) *LogHandler {
	return &LogHandler{Logs: l}
}

type logResp struct {
	ID           uint64    `json:"id"`
	PredictionID uint64    `json:"prediction_id"`
	UserID       uint64    `json:"user_id"`
	RequestIP    *string   `json:"request_ip"`
	UserAgent    *string   `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
}

func toLogResp(l model.PredictionLog) logResp {
	out := logResp{
		ID:           l.ID,
		PredictionID: l.PredictionID,
		UserID:       l.UserID,
		CreatedAt:    l.CreatedAt,
	}
	if l.RequestIP.Valid {
		v := l.RequestIP.String
		out.RequestIP = &v
	}
	if l.UserAgent.Valid {
		v := l.UserAgent.String
		out.UserAgent = &v
	}
	return out
}

// List returns every request log row, newest first. Admin only.
func (h *LogHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ls, err := h.Logs.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]logResp, 0, len(ls))
	for _, l := range ls {
		out = append(out, toLogResp(l))
	}
	return c.JSON(http.StatusOK, out)
}
