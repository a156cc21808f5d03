package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"tenant-ingest/internal/extract"
	"tenant-ingest/internal/services/health"
	"tenant-ingest/internal/shared/config"
	"tenant-ingest/internal/shared/server"
	"tenant-ingest/internal/shared/storage/db"
	"tenant-ingest/internal/shared/storage/docdb"
	"tenant-ingest/internal/shared/storage/object"
	localstore "tenant-ingest/internal/shared/storage/object/local"
	s3store "tenant-ingest/internal/shared/storage/object/s3"
	"tenant-ingest/internal/shared/telemetry"
	"tenant-ingest/internal/summarize"
	"tenant-ingest/internal/summarize/extractive"
	"tenant-ingest/internal/summarize/openai"
	"tenant-ingest/internal/tenants"
	"tenant-ingest/internal/uploads"
)

// App holds shared dependencies.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	DB            *sql.DB
	Mongo         *mongo.Client
	Store         object.ObjectStore
	Directory     tenants.Directory
	Provisioner   *tenants.Provisioner
	Accessor      uploads.Accessor
	Summarizer    summarize.Summarizer
	UploadService *uploads.Service
	UploadHandler *uploads.Handler
	Health        *health.Service
}

// Build prepares shared dependencies and the router. In dev and local an
// empty or unreachable DATABASE_URL or MONGODB_URL falls back to memory.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	telemetry.SetLevel(cfg.LogLevel)

	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	mongoClient, err := buildMongo(ctx, cfg)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.Mongo = mongoClient

	store, err := buildStore(ctx, cfg)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.Store = store

	summarizer, err := buildSummarizer(cfg)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.Summarizer = summarizer

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		UploadHandler: app.UploadHandler,
		Health:        app.Health,
		CORSOrigins:   cfg.CORSAllowOrigin,
		UploadRate:    cfg.UploadRateLimit,
		UploadBurst:   cfg.UploadBurst,
	})
	return app, nil
}

// Close releases store connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongo: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.directory_memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		if err = db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.directory_memory", map[string]any{"reason": "connect failed", "err": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildMongo(ctx context.Context, cfg config.Config) (*mongo.Client, error) {
	if strings.TrimSpace(cfg.MongoURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.documents_memory", map[string]any{"reason": "MONGODB_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("MONGODB_URL is required")
	}

	client, err := docdb.Connect(ctx, cfg.MongoURL, docdb.DefaultServerOptions())
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.documents_memory", map[string]any{"reason": "connect failed", "err": err})
			return nil, nil
		}
		return nil, err
	}
	return client, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildSummarizer(cfg config.Config) (summarize.Summarizer, error) {
	var inner summarize.Summarizer
	switch cfg.Summarizer {
	case "openai":
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel,
			openai.WithMaxTokens(cfg.SummaryMaxOutputTokens),
			openai.WithTimeout(cfg.OpenAITimeout),
		)
		if err != nil {
			if !cfg.IsDevLike() {
				return nil, err
			}
			telemetry.Warn("bootstrap.summarizer_fallback", map[string]any{"err": err})
			inner = extractive.New(cfg.SummarySentences)
			break
		}
		inner = client
	default:
		inner = extractive.New(cfg.SummarySentences)
	}
	return summarize.WithInputCap(inner, cfg.SummaryMaxInputTokens), nil
}

func buildServices(app *App) {
	checks := map[string]health.Checker{}
	if app.DB != nil {
		app.Directory = &tenants.PGRepo{DB: app.DB}
		checks["directory"] = app.DB.PingContext
	} else {
		app.Directory = tenants.NewMemoryRepo()
	}
	if app.Mongo != nil {
		app.Accessor = uploads.NewMongoAccessor(app.Mongo, app.Config.TenantCollection)
		client := app.Mongo
		checks["documents"] = func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}
	} else {
		app.Accessor = uploads.NewMemoryAccessor()
	}

	app.Provisioner = tenants.NewProvisioner(app.Directory)
	app.UploadService = &uploads.Service{
		Tenants:    app.Provisioner,
		Blobs:      app.Store,
		Extractor:  extract.New(),
		Summarizer: app.Summarizer,
		Accessor:   app.Accessor,
		Timeouts: uploads.Timeouts{
			Extract:   app.Config.ExtractTimeout,
			Summarize: app.Config.SummarizeTimeout,
			Store:     app.Config.StoreTimeout,
		},
	}
	app.UploadHandler = uploads.NewHandler(app.UploadService, app.Config.MaxUploadBytes)
	app.Health = health.NewService(checks)

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          app.Config.Env,
		"directory":    directoryKind(app.DB),
		"documents":    documentsKind(app.Mongo),
		"object_store": app.Config.ObjectStoreType,
		"summarizer":   app.Config.Summarizer,
	})
}

func directoryKind(sqlDB *sql.DB) string {
	if sqlDB == nil {
		return "memory"
	}
	return "postgres"
}

func documentsKind(client *mongo.Client) string {
	if client == nil {
		return "memory"
	}
	return "mongodb"
}
