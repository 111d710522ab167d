// Package runner schedules background analysis units. The inline runner
// executes them on an in-process worker pool; the kafka runner hands them to
// a separate worker binary through a task topic.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"dojolens/kafka"
	"dojolens/models"
)

// ProcessFunc is one background analysis unit: it must drive the job to a
// terminal state on every path.
type ProcessFunc func(ctx context.Context, job *models.AnalysisJob, video []byte)

// Runner schedules a submitted job for background execution. Dispatch must
// not block on the analysis itself.
type Runner interface {
	Dispatch(ctx context.Context, job *models.AnalysisJob, video []byte) error
}

// InlineRunner runs background units on an in-process worker pool.
type InlineRunner struct {
	pool    *WorkerPool
	process ProcessFunc
}

func NewInlineRunner(pool *WorkerPool, process ProcessFunc) *InlineRunner {
	return &InlineRunner{pool: pool, process: process}
}

func (r *InlineRunner) Dispatch(ctx context.Context, job *models.AnalysisJob, video []byte) error {
	// The request context ends with the HTTP response; the background unit
	// must outlive it.
	background := context.WithoutCancel(ctx)
	r.pool.Submit(background, func(ctx context.Context) {
		r.process(ctx, job, video)
	})
	return nil
}

// Wait blocks until every dispatched unit has finished.
func (r *InlineRunner) Wait() {
	r.pool.Wait()
}

// KafkaRunner spools the video to shared storage and publishes a task
// message for the worker binary.
type KafkaRunner struct {
	producer kafka.Producer
	topic    string
	spoolDir string
	logger   *zap.Logger
}

func NewKafkaRunner(producer kafka.Producer, topic, spoolDir string, logger *zap.Logger) *KafkaRunner {
	return &KafkaRunner{
		producer: producer,
		topic:    topic,
		spoolDir: spoolDir,
		logger:   logger,
	}
}

func (r *KafkaRunner) Dispatch(ctx context.Context, job *models.AnalysisJob, video []byte) error {
	path := filepath.Join(r.spoolDir, job.ID+".video")
	if err := os.WriteFile(path, video, 0o644); err != nil {
		return fmt.Errorf("spool video: %w", err)
	}

	msg := &kafka.AnalysisMessage{
		AnalysisID:          job.ID,
		FilePath:            path,
		MartialArt:          string(job.Discipline),
		ConfidenceThreshold: job.ConfidenceThreshold,
	}
	if err := r.producer.SendAnalysisMessage(ctx, r.topic, msg); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			r.logger.Warn("Could not remove spooled video after failed publish",
				zap.String("path", path),
				zap.Error(rmErr),
			)
		}
		return fmt.Errorf("publish analysis task: %w", err)
	}

	r.logger.Info("Analysis task published",
		zap.String("analysis_id", job.ID),
		zap.String("topic", r.topic),
	)
	return nil
}
