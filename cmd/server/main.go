package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/churn-prediction-api/internal/artifact"
	"github.com/iliyamo/churn-prediction-api/internal/bootstrap"
	"github.com/iliyamo/churn-prediction-api/internal/config"
	"github.com/iliyamo/churn-prediction-api/internal/database"
	"github.com/iliyamo/churn-prediction-api/internal/handler"
	"github.com/iliyamo/churn-prediction-api/internal/pipeline"
	"github.com/iliyamo/churn-prediction-api/internal/queue"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
	"github.com/iliyamo/churn-prediction-api/internal/router"
)

func main() {
	// .env is optional; in containers configuration comes from the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	if err := bootstrap.EnsureDefaultAdmin(ctx, repository.NewUserRepo(db),
		cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		log.Fatalf("admin bootstrap: %v", err)
	}

	store, err := artifact.NewStore(ctx, artifact.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Prefix:    cfg.S3Prefix,
		Name:      cfg.ModelName,
		Version:   cfg.ModelVersion,
		Dir:       cfg.ArtifactDir,
	})
	if err != nil {
		log.Fatalf("artifact store: %v", err)
	}
	// Artifacts may be briefly unreachable at boot; /readyz reports not-ready
	// and Load is retried until it sticks.
	if err := store.Load(ctx); err != nil {
		log.Printf("artifact load failed, will retry: %v", err)
		go retryLoad(store)
	} else {
		log.Printf("serving model %s version %s", store.Name(), store.Version())
	}

	users := repository.NewUserRepo(db)
	models := repository.NewModelRepo(db)
	predictions := repository.NewPredictionRepo(db)
	metadata := repository.NewMetadataRepo(db)
	logs := repository.NewLogRepo(db)
	feedbacks := repository.NewFeedbackRepo(db)

	svc := pipeline.NewService(store, models, predictions, metadata, logs)

	h := router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users),
		Predictions: handler.NewPredictionHandler(svc, predictions),
		Feedback:    handler.NewFeedbackHandler(feedbacks),
		Models:      handler.NewModelHandler(models, store),
		Users:       handler.NewUserHandler(users),
		Admin:       handler.NewAdminHandler(cfg, users),
		Logs:        handler.NewLogHandler(logs),
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, h, store, rdb)
	router.RegisterPredict(e, h, cfg, users, rdb)
	router.RegisterAPI(e, h, cfg, users, rdb)

	// Background consumer mirrors scored predictions to the local audit file.
	go func() {
		if err := queue.StartScoredConsumer(); err != nil {
			log.Printf("scored consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// retryLoad keeps trying to fetch artifacts until a load succeeds. Requests
// against /predict fail cleanly in the meantime.
func retryLoad(store *artifact.Store) {
	for {
		time.Sleep(15 * time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := store.Load(ctx)
		cancel()
		if err == nil {
			log.Printf("serving model %s version %s", store.Name(), store.Version())
			return
		}
		log.Printf("artifact load failed, will retry: %v", err)
	}
}
