package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/churn-prediction-api/internal/artifact"
	"github.com/iliyamo/churn-prediction-api/internal/config"
	"github.com/iliyamo/churn-prediction-api/internal/handler"
	"github.com/iliyamo/churn-prediction-api/internal/middleware"
	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
)

// Handlers bundles every handler the API exposes so route registration stays
// in one place.
type Handlers struct {
	Auth        *handler.AuthHandler
	Predictions *handler.PredictionHandler
	Feedback    *handler.FeedbackHandler
	Models      *handler.ModelHandler
	Users       *handler.UserHandler
	Admin       *handler.AdminHandler
	Logs        *handler.LogHandler
}

// RegisterRoutes registers routes that do not require authentication:
// liveness, readiness and the auth endpoints.
func RegisterRoutes(e *echo.Echo, h Handlers, store *artifact.Store, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(store))

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	auth := e.Group("/auth")
	auth.Use(limiter)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
}

// RegisterPredict registers the prediction endpoints. Every route requires a
// valid access token and an active account; scoring itself is rate limited.
func RegisterPredict(e *echo.Echo, h Handlers, cfg config.Config, users *repository.UserRepo, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/predict")
	g.Use(middleware.JWTAuth(cfg.JWTSecret))
	g.Use(middleware.LoadUser(users))

	g.POST("", h.Predictions.Predict, limiter)
	g.GET("/predictions/", h.Predictions.List)
	g.GET("/predictions/:id", h.Predictions.Get)
	g.DELETE("/predictions/:id", h.Predictions.Delete)
}

// RegisterAPI registers the account, feedback, registry and audit endpoints.
// Listing routes are admin-only and sit behind the Redis response cache.
func RegisterAPI(e *echo.Echo, h Handlers, cfg config.Config, users *repository.UserRepo, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	api := e.Group("/api")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))
	api.Use(middleware.LoadUser(users))

	api.POST("/feedback/", h.Feedback.Create)
	api.GET("/feedback/", h.Feedback.List, adminOnly, cache)

	api.GET("/models/", h.Models.List, adminOnly, cache)
	api.POST("/models/", h.Models.Register, adminOnly)

	api.GET("/logs/", h.Logs.List, adminOnly, cache)

	api.GET("/users/me", h.Users.Me)
	api.GET("/users/", h.Users.List, adminOnly, cache)

	admin := e.Group("/admin")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(middleware.LoadUser(users))
	admin.POST("/create-admin", h.Admin.CreateAdmin, adminOnly)
}
