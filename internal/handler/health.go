package handler // declare the package name; contains HTTP handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/churn-prediction-api/internal/artifact"
)

// Health is a simple liveness endpoint used by load balancers and monitoring
// systems to verify that the process is running. It returns a plain text
// "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready reports whether the service can serve predictions. Until the model
// artifacts finish loading the endpoint returns 503 so orchestrators do not
// route /predict traffic here; other routes may still serve.
func Ready(store *artifact.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !store.Loaded() {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "loading artifacts"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":        "ready",
			"model_name":    store.Name(),
			"model_version": store.Version(),
		})
	}
}
