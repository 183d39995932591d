package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casequery-backend/config"
	"casequery-backend/dataset"
	"casequery-backend/fallback"
	"casequery-backend/handlers"
	"casequery-backend/repository"
	"casequery-backend/service"
	"casequery-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	fileStorage, err := storage.New(ctx, cfg.StorageSettings())
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	logger.Info("Storage initialized", zap.String("type", cfg.Storage.Type))

	// Postgres is optional; without it questions are not logged
	var db *pgxpool.Pool
	if cfg.Database.URL != "" {
		db, err = initPostgres(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to initialize Postgres", zap.Error(err))
		}
		defer db.Close()
		logger.Info("Postgres connection established")
	}

	cache, closeCache := initCache(ctx, cfg, logger)
	defer closeCache()

	// Initialize Gemini client
	geminiClient, err := initGemini(ctx, cfg.Gemini.APIKey, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini", zap.Error(err))
	}
	defer geminiClient.Close()

	generator := fallback.NewGeminiGenerator(geminiClient, cfg.Gemini.Model, logger.Named("gemini"))
	limiter := fallback.NewRateLimiter(cfg.RateWindows())
	coordinator := fallback.NewCoordinator(generator, limiter,
		fallback.WithRetryConfig(cfg.RetryConfig()),
		fallback.WithQueueSize(cfg.Fallback.QueueSize),
		fallback.WithGenerationTimeout(cfg.Fallback.Timeout),
		fallback.WithCoordinatorLogger(logger.Named("coordinator")),
	)
	defer coordinator.Close()

	gate := fallback.NewGate(cache, coordinator,
		fallback.WithCacheTTL(cfg.Fallback.CacheTTL),
		fallback.WithFallbackWait(cfg.Fallback.Wait),
		fallback.WithMaxPromptChars(cfg.Fallback.MaxPromptChars),
		fallback.WithGateLogger(logger.Named("gate")),
	)

	// Initialize services
	opts := []service.QueryServiceOption{
		service.WithFallback(gate),
		service.WithLogger(logger.Named("query")),
		service.WithLocation(cfg.Location()),
	}
	var (
		caseRepo *repository.CaseRepository
		fileRepo *repository.FileRepository
	)
	if db != nil {
		caseRepo = repository.NewCaseRepository(db)
		fileRepo = repository.NewFileRepository(db)
		opts = append(opts, service.WithQuestionLog(repository.NewQuestionLogRepository(db)))
	}
	queryService := service.NewQueryService(opts...)

	if err := loadInitialDataset(ctx, cfg, queryService, caseRepo, fileRepo, fileStorage); err != nil {
		logger.Warn("No dataset loaded at startup", zap.Error(err))
	}

	// Initialize handlers
	datasetOpts := []handlers.DatasetHandlerOption{
		handlers.WithMaxFileSize(cfg.MaxUploadBytes),
		handlers.WithHandlerLogger(logger.Named("dataset")),
	}
	if fileRepo != nil {
		datasetOpts = append(datasetOpts, handlers.WithFileLog(fileRepo))
	}
	if caseRepo != nil && cfg.DatasetFromDB {
		datasetOpts = append(datasetOpts, handlers.WithCaseStore(caseRepo))
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Query:          handlers.NewQueryHandler(queryService, logger.Named("http")),
		Dataset:        handlers.NewDatasetHandler(queryService, fileStorage, datasetOpts...),
		AdminTokenHash: cfg.AdminTokenHash,
		Logger:         logger.Named("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// initCache prefers Redis so every instance shares answers, falling back to memory.
func initCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (fallback.AnswerCache, func()) {
	memory := fallback.NewMemoryCache(cfg.Fallback.CacheMaxEntries)
	if cfg.Redis.Addr == "" {
		logger.Info("Answer cache in memory")
		return memory, func() {}
	}

	rc, err := fallback.NewRedisCache(ctx, fallback.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		logger.Warn("Redis unavailable, answer cache in memory", zap.Error(err))
		return memory, func() {}
	}
	logger.Info("Answer cache in Redis", zap.String("addr", cfg.Redis.Addr))
	return rc, func() { rc.Close() }
}

func initGemini(ctx context.Context, apiKey string, logger *zap.Logger) (*genai.Client, error) {
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	logger.Info("Gemini client initialized")
	return client, nil
}

// loadInitialDataset serves the database table, DATASET_PATH or the latest upload, in that order.
func loadInitialDataset(ctx context.Context, cfg *config.Config, svc *service.QueryService,
	caseRepo *repository.CaseRepository, fileRepo *repository.FileRepository, fileStorage storage.Storage) error {
	switch {
	case cfg.DatasetFromDB && caseRepo != nil:
		_, err := svc.LoadFrom(ctx, caseRepo)
		return err
	case cfg.DatasetPath != "":
		_, err := svc.LoadFrom(ctx, dataset.FileSource{Path: cfg.DatasetPath})
		return err
	case fileRepo != nil:
		latest, err := fileRepo.Latest(ctx)
		if err != nil {
			return err
		}
		_, err = svc.LoadFrom(ctx, dataset.StoredSource{Storage: fileStorage, Path: latest.StoragePath})
		return err
	}
	return service.ErrNoDatasetSource
}
