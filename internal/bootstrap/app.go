package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/analyses"
	"resume-matcher/internal/llm"
	"resume-matcher/internal/llm/gemini"
	"resume-matcher/internal/llm/openai"
	"resume-matcher/internal/prompt"
	"resume-matcher/internal/records"
	"resume-matcher/internal/services/health"
	"resume-matcher/internal/shared/auth"
	"resume-matcher/internal/shared/config"
	"resume-matcher/internal/shared/server"
	"resume-matcher/internal/shared/server/middleware"
	"resume-matcher/internal/shared/storage/db"
	"resume-matcher/internal/shared/storage/object"
	localstore "resume-matcher/internal/shared/storage/object/local"
	miniostore "resume-matcher/internal/shared/storage/object/minio"
	s3store "resume-matcher/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.Store
	RecordsRepo     records.Repo
	RecordsService  *records.Service
	AnalysesService *analyses.Service
	AnalysisHandler *analyses.Handler
}

// Build prepares every dependency and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}
	analysisSvc, err := BuildAnalysisService(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}
	verifier, err := auth.NewVerifier(cfg.AuthJWTSecret, cfg.Env)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	var repo records.Repo
	var pinger health.Pinger
	if sqlDB != nil {
		repo = &records.PGRepo{DB: sqlDB}
		pinger = sqlDB
	} else {
		repo = records.NewMemoryRepo()
	}
	recordsSvc := records.NewService(repo, store)

	app := &App{
		Config:          cfg,
		DB:              sqlDB,
		Store:           store,
		RecordsRepo:     repo,
		RecordsService:  recordsSvc,
		AnalysesService: analysisSvc,
		AnalysisHandler: analyses.NewHandler(analysisSvc, recordsSvc),
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: app.AnalysisHandler,
		Verifier:        verifier,
		Health:          health.NewService(pinger),
		Limiter:         middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() {
	if a != nil {
		closeDB(a.DB)
	}
}

// BuildAnalysisService wires the prompt builder and the configured model client.
func BuildAnalysisService(ctx context.Context, cfg config.Config) (*analyses.Service, error) {
	client, err := BuildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return analyses.NewService(prompt.New(cfg.PromptMaxChars), client, analyses.Options{
		SchemaRetry: cfg.SchemaRetry,
	}), nil
}

// BuildLLM returns the provider client wrapped with timeout and retry. Outside
// production a missing API key yields a client that always fails upstream, so the rest
// of the API stays usable.
func BuildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var (
		base llm.Client
		err  error
	)
	switch cfg.LLMProvider {
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return unconfigured(cfg, "OPENAI_API_KEY")
		}
		base, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	default:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return unconfigured(cfg, "GEMINI_API_KEY")
		}
		base, err = gemini.NewClient(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.LLMModel})
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.LLMProvider, err)
	}
	return llm.WithRetry(base, llm.RetryOptions{
		MaxAttempts: cfg.LLMMaxAttempts,
		Timeout:     cfg.LLMTimeout,
	}), nil
}

func unconfigured(cfg config.Config, key string) (llm.Client, error) {
	if !isDevLike(cfg.Env) {
		return nil, fmt.Errorf("%s is required for LLM_PROVIDER=%s", key, cfg.LLMProvider)
	}
	log.Printf("bootstrap: %s empty; analysis calls will fail until it is set", key)
	return llm.ClientFunc(func(context.Context, prompt.Prompt) (string, error) {
		return "", fmt.Errorf("%w: %s not configured", llm.ErrUpstream, cfg.LLMProvider)
	}), nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory records")
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory records: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.S3KMSKeyID,
			Endpoint: cfg.S3Endpoint,
		})
	case "minio":
		store, err := miniostore.New(miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			Region:    cfg.AWSRegion,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx, cfg.AWSRegion); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
