package service

import (
	"context"
	"errors"
	"image"
	"time"

	"go.uber.org/zap"

	"dojolens/analyzer"
	"dojolens/cache"
	"dojolens/models"
	"dojolens/pose"
	"dojolens/repository"
	"dojolens/video"
)

// FrameExtractor decodes a video blob into a bounded frame sequence.
type FrameExtractor interface {
	Extract(ctx context.Context, data []byte) ([]*image.NRGBA, error)
}

// NormalizeFunc maps a frame sequence to the fixed pose-inference shape.
type NormalizeFunc func(frames []*image.NRGBA) ([]*image.NRGBA, error)

// TechniqueAnalyzer runs the synchronous analysis over extracted frames.
type TechniqueAnalyzer interface {
	Analyze(ctx context.Context, in analyzer.Input, discipline models.Discipline, threshold float64) (*models.AnalysisResult, error)
}

// Processor is the background analysis unit: extraction, normalization,
// pose inference and reasoning, ending in exactly one terminal store update
// whatever happens in between.
type Processor struct {
	store     repository.Store
	cache     *cache.StatusCache
	extractor FrameExtractor
	normalize NormalizeFunc
	analyzer  TechniqueAnalyzer
	logger    *zap.Logger
}

func NewProcessor(
	store repository.Store,
	statusCache *cache.StatusCache,
	extractor FrameExtractor,
	normalize NormalizeFunc,
	techniqueAnalyzer TechniqueAnalyzer,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		store:     store,
		cache:     statusCache,
		extractor: extractor,
		normalize: normalize,
		analyzer:  techniqueAnalyzer,
		logger:    logger,
	}
}

// Process runs one analysis to a terminal state. It never panics out and
// never leaves the job in processing: every failure path writes a failed
// record.
func (p *Processor) Process(ctx context.Context, job *models.AnalysisJob, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic in analysis unit",
				zap.String("analysis_id", job.ID),
				zap.Any("panic", r),
			)
			p.fail(ctx, job.ID, "internal error")
		}
	}()

	p.logger.Info("Starting analysis",
		zap.String("analysis_id", job.ID),
		zap.String("martial_art", string(job.Discipline)),
		zap.Int("video_bytes", len(data)),
	)

	frames, err := p.extractor.Extract(ctx, data)
	if err != nil {
		p.failWith(ctx, job.ID, err)
		return
	}
	// The blob is not owned beyond extraction.
	data = nil

	normalized, err := p.normalize(frames)
	if err != nil {
		p.failWith(ctx, job.ID, err)
		return
	}

	result, err := p.analyzer.Analyze(ctx, analyzer.Input{Frames: normalized}, job.Discipline, job.ConfidenceThreshold)
	if err != nil {
		p.failWith(ctx, job.ID, err)
		return
	}

	now := time.Now().UTC()
	if err := p.store.Complete(ctx, job.ID, result, now); err != nil {
		p.logger.Error("Could not record completed analysis",
			zap.String("analysis_id", job.ID),
			zap.Error(err),
		)
		return
	}
	if err := p.cache.Set(ctx, job.ID, models.StatusCompleted); err != nil {
		p.logger.Warn("Could not update status cache", zap.String("analysis_id", job.ID), zap.Error(err))
	}

	p.logger.Info("Analysis completed",
		zap.String("analysis_id", job.ID),
		zap.String("technique", result.Technique),
		zap.Duration("elapsed", now.Sub(job.CreatedAt)),
	)
}

// failWith maps pipeline errors to the failure detail exposed on the job
// record. Domain errors surface their message; anything unexpected is
// reported generically and logged in full.
func (p *Processor) failWith(ctx context.Context, id string, err error) {
	switch {
	case errors.Is(err, video.ErrDecode),
		errors.Is(err, video.ErrEmptyVideo),
		errors.Is(err, video.ErrEmptyInput),
		errors.Is(err, pose.ErrShapeMismatch),
		errors.Is(err, pose.ErrInference),
		errors.Is(err, models.ErrUnsupportedDiscipline):
		p.logger.Warn("Analysis failed", zap.String("analysis_id", id), zap.Error(err))
		p.fail(ctx, id, err.Error())
	default:
		p.logger.Error("Analysis failed unexpectedly", zap.String("analysis_id", id), zap.Error(err))
		p.fail(ctx, id, "internal error")
	}
}

func (p *Processor) fail(ctx context.Context, id, detail string) {
	if err := p.store.Fail(ctx, id, detail, time.Now().UTC()); err != nil {
		p.logger.Error("Could not record failed analysis",
			zap.String("analysis_id", id),
			zap.Error(err),
		)
		return
	}
	if err := p.cache.Set(ctx, id, models.StatusFailed); err != nil {
		p.logger.Warn("Could not update status cache", zap.String("analysis_id", id), zap.Error(err))
	}
}
