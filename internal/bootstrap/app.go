package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resumind-backend/internal/blobstore"
	localstore "resumind-backend/internal/blobstore/local"
	s3store "resumind-backend/internal/blobstore/s3"
	"resumind-backend/internal/convert"
	"resumind-backend/internal/identifier"
	"resumind-backend/internal/inference"
	"resumind-backend/internal/inference/openai"
	"resumind-backend/internal/kvstore"
	"resumind-backend/internal/pipeline"
	"resumind-backend/internal/resumes"
	"resumind-backend/internal/shared/config"
	"resumind-backend/internal/shared/server"
	"resumind-backend/internal/shared/storage/db"
)

// App holds shared dependencies wired from configuration.
type App struct {
	Config config.Config
	Router *gin.Engine

	DB      *sql.DB
	Blobs   blobstore.Store
	Records kvstore.Store

	Pipeline      *pipeline.Controller
	ResumeService *resumes.Service
	ResumeHandler *resumes.Handler
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	blobs, err := buildBlobs(ctx, cfg)
	if err != nil {
		return nil, err
	}

	recordStore, sqlDB, err := buildRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildInference(cfg, blobs)
	if err != nil {
		return nil, err
	}

	ctrl := &pipeline.Controller{
		Blobs:       blobs,
		Records:     recordStore,
		Converter:   convert.NewPDFConverter(),
		Inference:   llmClient,
		IDs:         identifier.UUIDGenerator{},
		StepTimeout: cfg.StepTimeout,
	}

	svc := &resumes.Service{Records: recordStore, Blobs: blobs}
	handler := resumes.NewHandler(svc, ctrl)

	app := &App{
		Config:        cfg,
		DB:            sqlDB,
		Blobs:         blobs,
		Records:       recordStore,
		Pipeline:      ctrl,
		ResumeService: svc,
		ResumeHandler: handler,
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		ResumeHandler: handler,
	})

	return app, nil
}

// Close releases any backing connections held by the app.
func (a *App) Close() error {
	var firstErr error
	if closer, ok := a.Records.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildBlobs(ctx context.Context, cfg config.Config) (blobstore.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildRecords(ctx context.Context, cfg config.Config) (kvstore.Store, *sql.DB, error) {
	switch cfg.RecordStoreType {
	case "redis":
		store, err := kvstore.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, nil, nil
	case "postgres":
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultServerOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return &kvstore.PGStore{DB: sqlDB}, sqlDB, nil
	default:
		return kvstore.NewMemoryStore(), nil, nil
	}
}

func buildInference(cfg config.Config, blobs blobstore.Store) (inference.Client, error) {
	if cfg.LLMProvider != "openai" {
		return inference.PlaceholderClient{}, nil
	}
	if strings.TrimSpace(cfg.OpenAIKey) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: OPENAI_API_KEY empty; analysis requests will fail until configured")
			return inference.PlaceholderClient{}, nil
		}
		return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
	}
	return openai.NewClient(cfg.OpenAIKey, cfg.LLMModel, blobs)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
