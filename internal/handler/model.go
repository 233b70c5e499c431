package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/churn-prediction-api/internal/artifact"
	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
)

// ModelHandler manages the model registry backing the prediction pipeline.
type ModelHandler struct {
	Models    *repository.ModelRepo
	Artifacts *artifact.Store
}

func NewModelHandler(m *repository.ModelRepo, a *artifact.Store) *ModelHandler {
	return &ModelHandler{Models: m, Artifacts: a}
}

type registerModelReq struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type modelResp struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toModelResp(m model.MLModel) modelResp {
	out := modelResp{
		ID:        m.ID,
		Name:      m.Name,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
	}
	if m.Description.Valid {
		v := m.Description.String
		out.Description = &v
	}
	return out
}

// Register records a model row in the registry. When version is omitted the
// newest version present in the artifact bucket is resolved and recorded.
func (h *ModelHandler) Register(c echo.Context) error {
	var req registerModelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if req.Version == "" {
		if h.Artifacts == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "version required"})
		}
		v, err := h.Artifacts.LatestVersion(ctx, req.Name)
		if err != nil {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not resolve latest version"})
		}
		req.Version = v
	}

	m, err := h.Models.Create(ctx, req.Name, req.Version, req.Description)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "register model failed"})
	}
	return c.JSON(http.StatusCreated, toModelResp(m))
}

// List returns every registered model, newest first.
func (h *ModelHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ms, err := h.Models.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]modelResp, 0, len(ms))
	for _, m := range ms {
		out = append(out, toModelResp(m))
	}
	return c.JSON(http.StatusOK, out)
}
