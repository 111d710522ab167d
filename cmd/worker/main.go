package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"dojolens/analyzer"
	"dojolens/cache"
	"dojolens/config"
	"dojolens/kafka"
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

	logger.Info("Analysis worker starting",
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.KafkaGroupID),
	)

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required: the worker shares the analysis store with the API")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	var statusCache *cache.StatusCache
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(cfg.RedisAddr)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		statusCache = cache.NewStatusCache(client)
	}

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

	consumer, err := kafka.NewConsumer([]string{cfg.KafkaBrokers}, cfg.KafkaGroupID)
	if err != nil {
		logger.Fatal("Failed to create kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	workers := runner.NewWorkerPool(cfg.WorkerCount)
	handle := handleTask(store, workers, processor.Process, logger)

	logger.Info("Worker started")
	if err := consumer.Consume(ctx, cfg.KafkaTopic, handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", zap.Error(err))
	}

	workers.Wait()
	logger.Info("Worker stopped")
}

// handleTask turns one task message into a background unit. The spooled
// video is released on every exit path: redelivered messages for unknown
// or unreadable tasks must not accumulate spool files.
func handleTask(store repository.Store, workers *runner.WorkerPool, process runner.ProcessFunc, logger *zap.Logger) kafka.MessageHandler {
	removeSpool := func(path string) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Could not remove spooled video",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}

	return func(ctx context.Context, msg *kafka.AnalysisMessage) error {
		job, err := store.Get(ctx, msg.AnalysisID)
		if err != nil {
			logger.Error("Task references unknown analysis",
				zap.String("analysis_id", msg.AnalysisID),
				zap.Error(err),
			)
			removeSpool(msg.FilePath)
			return err
		}

		data, err := os.ReadFile(msg.FilePath)
		if err != nil {
			logger.Error("Could not read spooled video",
				zap.String("analysis_id", msg.AnalysisID),
				zap.String("path", msg.FilePath),
				zap.Error(err),
			)
			if failErr := store.Fail(ctx, job.ID, "video unavailable", time.Now().UTC()); failErr != nil {
				logger.Error("Failed to mark analysis failed", zap.Error(failErr))
			}
			removeSpool(msg.FilePath)
			return err
		}

		workers.Submit(ctx, func(ctx context.Context) {
			process(ctx, job, data)
			removeSpool(msg.FilePath)
		})
		return nil
	}
}
