package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"dojolens/analyzer"
	"dojolens/cache"
	"dojolens/config"
	"dojolens/handlers"
	"dojolens/kafka"
	"dojolens/middleware"
	"dojolens/pose"
	"dojolens/reasoning"
	"dojolens/repository"
	"dojolens/runner"
	"dojolens/service"
	"dojolens/video"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	logger.Info("Analysis service starting",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("runner", cfg.Runner),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup := newStore(ctx, cfg, logger)
	defer cleanup()

	statusCache := newStatusCache(cfg, logger)

	var detector pose.Detector
	if cfg.PoseServerURL != "" {
		detector = pose.NewModelDetector(cfg.PoseServerURL, logger)
	} else {
		logger.Warn("POSE_SERVER_URL not set, using synthetic pose detection")
		detector = pose.NewSyntheticDetector()
	}

	client := reasoning.NewWatsonxClient(cfg.WatsonxURL, cfg.WatsonxAPIKey, cfg.WatsonxProjectID, logger)
	techniqueAnalyzer := analyzer.New(detector, client, logger).
		WithModel(cfg.WatsonxModel).
		WithCallTimeout(cfg.ReasoningTimeout)

	extractor := video.NewExtractor(logger).WithMaxFrames(cfg.MaxFrames)
	processor := service.NewProcessor(store, statusCache, extractor, video.Normalize, techniqueAnalyzer, logger)

	jobRunner, runnerCleanup := newRunner(cfg, processor, logger)
	defer runnerCleanup()

	analysisService := service.NewAnalysisService(store, statusCache, jobRunner, cfg.MaxFileSize, logger)
	handler := handlers.NewAnalysisHandler(analysisService, logger)

	mux := http.NewServeMux()
	handler.Register(mux)

	chain := middleware.TraceID(
		middleware.Logging(logger)(
			middleware.Recovery(logger)(mux),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      chain,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("Server started", zap.String("address", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func()) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, using in-memory store")
		return repository.NewMemoryStore(), func() {}
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	store := repository.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Connected to database")
	return store, pool.Close
}

func newStatusCache(cfg *config.Config, logger *zap.Logger) *cache.StatusCache {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, status cache disabled")
		return nil
	}

	client, err := cache.Connect(cfg.RedisAddr)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}

	logger.Info("Connected to redis", zap.String("addr", cfg.RedisAddr))
	return cache.NewStatusCache(client)
}

func newRunner(cfg *config.Config, processor *service.Processor, logger *zap.Logger) (runner.Runner, func()) {
	if cfg.Runner == "kafka" {
		producer, err := kafka.NewProducer([]string{cfg.KafkaBrokers})
		if err != nil {
			logger.Fatal("Failed to create kafka producer", zap.Error(err))
		}
		logger.Info("Dispatching analyses to kafka", zap.String("topic", cfg.KafkaTopic))
		return runner.NewKafkaRunner(producer, cfg.KafkaTopic, cfg.SpoolDir, logger), func() { producer.Close() }
	}

	pool := runner.NewWorkerPool(cfg.WorkerCount)
	inline := runner.NewInlineRunner(pool, processor.Process)
	return inline, inline.Wait
}
