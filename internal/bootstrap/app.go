package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-generator/internal/embedding"
	embgemini "resume-generator/internal/embedding/gemini"
	embopenai "resume-generator/internal/embedding/openai"
	"resume-generator/internal/events"
	"resume-generator/internal/experiences"
	"resume-generator/internal/generations"
	"resume-generator/internal/llm"
	"resume-generator/internal/llm/gemini"
	"resume-generator/internal/llm/openai"
	"resume-generator/internal/queue"
	"resume-generator/internal/retrieval"
	"resume-generator/internal/shared/config"
	"resume-generator/internal/shared/server"
	"resume-generator/internal/shared/signing"
	"resume-generator/internal/shared/storage/db"
	"resume-generator/internal/shared/storage/object"
	localstore "resume-generator/internal/shared/storage/object/local"
	s3store "resume-generator/internal/shared/storage/object/s3"
	"resume-generator/internal/synthesis"
	"resume-generator/internal/translation"
	"resume-generator/resume/render"
)

// App holds shared dependencies.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	SQLite       *sql.DB
	Store        object.Store
	Queue        queue.Client
	Cache        generations.Cache
	Embedder     embedding.Embedder
	LLM          llm.Client
	Experiences  *experiences.Service
	Renderer     *render.Renderer
	Orchestrator *generations.Orchestrator
	Signer       *signing.Signer
	Handler      *generations.Handler

	closers []func() error
}

// Build prepares shared dependencies and the HTTP router. dbOpts are the
// pool defaults of the calling process; DB_* env vars still override them.
func Build(ctx context.Context, cfg config.Config, dbOpts db.Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	sqlDB, err := buildDB(ctx, cfg, dbOpts)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		app.DB = sqlDB
		app.closers = append(app.closers, sqlDB.Close)
	}

	repo, err := app.buildRepo(ctx)
	if err != nil {
		return nil, err
	}

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Embedder, err = buildEmbedder(ctx, cfg); err != nil {
		return nil, err
	}
	if app.LLM, err = buildLLM(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Queue, err = buildQueue(ctx, cfg); err != nil {
		return nil, err
	}

	app.Cache = generations.NewMemoryCache()
	if cfg.CacheStore == "pg" {
		if app.DB != nil {
			app.Cache = &generations.PGCache{DB: app.DB}
		} else {
			log.Printf("bootstrap: CACHE_STORE=pg without a database; using in-memory cache")
		}
	}

	app.Experiences = &experiences.Service{Repo: repo, Embedder: app.Embedder}
	app.Experiences.OnChange(func(ctx context.Context, ownerID string) {
		if err := app.Cache.InvalidateUser(ctx, ownerID); err != nil {
			log.Printf("bootstrap: invalidate cache for changed experience set: %v", err)
		}
	})

	sinks, err := app.buildSinks(cfg)
	if err != nil {
		return nil, err
	}

	p := cfg.Pipeline
	app.Renderer = render.New(p)
	app.Orchestrator = &generations.Orchestrator{
		Experiences: app.Experiences,
		Synthesizer: &synthesis.Synthesizer{
			Retriever: &retrieval.Retriever{
				Repo:     repo,
				Embedder: app.Embedder,
				FanOut:   p.RetrievalFanOut,
				TopK:     p.RetrievalTopK,
			},
			LLM:            app.LLM,
			MaxAttempts:    p.SynthMaxAttempts,
			MaxTermQueries: p.SynthMaxTermQueries,
			TopK:           p.RetrievalTopK,
		},
		Translator:   &translation.Translator{LLM: app.LLM, MaxAttempts: p.TranslateMaxAttempts},
		Renderer:     app.Renderer,
		Store:        app.Store,
		Cache:        app.Cache,
		Sinks:        sinks,
		DefaultModel: cfg.LLMModel,
		Concurrency:  p.Concurrency,
		Timeout:      p.Timeout,
	}

	app.Signer = signing.New(cfg.DownloadSigningSecret, cfg.DownloadURLTTL)
	app.Handler = generations.NewHandler(app.Orchestrator, app.Cache, app.Store, app.Signer, app.Queue)
	app.Router = server.NewRouter(cfg, server.RouterDeps{
		Handlers: []server.RouteRegistrar{app.Handler},
	})

	ok = true
	return app, nil
}

// Close releases connections opened by Build, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config, defaults db.Options) (*sql.DB, error) {
	needsPG := cfg.ExperienceStore == "pg" || cfg.CacheStore == "pg"
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if needsPG && !isDevLike(cfg.Env) {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if needsPG {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
		}
		return nil, nil
	}
	if !needsPG {
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(defaults))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func (a *App) buildRepo(ctx context.Context) (experiences.Repo, error) {
	switch a.Config.ExperienceStore {
	case "pg":
		if a.DB != nil {
			return &experiences.PGRepo{DB: a.DB}, nil
		}
		log.Printf("bootstrap: EXPERIENCE_STORE=pg without a database; using in-memory repository")
	case "sqlite":
		sqliteDB, err := db.OpenSQLite(ctx, a.Config.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.SQLite = sqliteDB
		a.closers = append(a.closers, sqliteDB.Close)
		if err := db.RunSQLiteMigrations(ctx, sqliteDB); err != nil {
			return nil, fmt.Errorf("sqlite migrations: %w", err)
		}
		return &experiences.SQLiteRepo{DB: sqliteDB}, nil
	}
	return experiences.NewMemoryRepo(), nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildEmbedder(ctx context.Context, cfg config.Config) (embedding.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		return embopenai.New(embopenai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.EmbeddingServiceURL,
			Model:          cfg.EmbeddingModel,
			Dimensions:     cfg.EmbeddingDimensions,
			SendDimensions: strings.HasPrefix(cfg.EmbeddingModel, "text-embedding-3"),
		})
	case "gemini":
		return embgemini.New(ctx, embgemini.Config{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDimensions,
		})
	default:
		return embedding.NewHashingEmbedder(cfg.EmbeddingDimensions), nil
	}
}

// buildLLM routes gpt-/o-series models to OpenAI and gemini- models to
// Gemini. LLM_PROVIDER picks the provider for any other model id.
func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	router := &llm.Router{DefaultModel: cfg.LLMModel}
	providers := map[string]llm.Client{}

	if cfg.OpenAIAPIKey != "" {
		c, err := openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.OpenAITimeout,
		})
		if err != nil {
			return nil, err
		}
		providers["openai"] = llm.NewRetrying(c)
		for _, prefix := range []string{"gpt-", "o1", "o3", "o4"} {
			router.Handle(prefix, providers["openai"])
		}
	}
	if cfg.GeminiAPIKey != "" {
		c, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey})
		if err != nil {
			return nil, err
		}
		providers["gemini"] = llm.NewRetrying(c)
		router.Handle("gemini-", providers["gemini"])
	}

	router.Fallback = providers[cfg.LLMProvider]
	if len(providers) == 0 {
		log.Printf("bootstrap: no LLM provider configured; generation requests will fail")
	}
	return router, nil
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
}

func (a *App) buildSinks(cfg config.Config) ([]generations.EventSink, error) {
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		return nil, nil
	}
	sink, err := events.DialAMQP(cfg.RabbitMQURL)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: rabbitmq unavailable; progress events stay local: %v", err)
			return nil, nil
		}
		return nil, err
	}
	a.closers = append(a.closers, sink.Close)
	return []generations.EventSink{sink}, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
