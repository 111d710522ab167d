package models

import (
	"time"

	"dojolens/pose"
)

// Status is the lifecycle state of an analysis job. Jobs start in
// StatusProcessing and move to exactly one terminal state.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// AnalysisJob tracks one asynchronous video analysis from submission to a
// terminal state.
type AnalysisJob struct {
	ID                  string          `json:"id"`
	Discipline          Discipline      `json:"martial_art"`
	ConfidenceThreshold float64         `json:"confidence_threshold"`
	Filename            string          `json:"filename,omitempty"`
	Status              Status          `json:"status"`
	Result              *AnalysisResult `json:"result,omitempty"`
	ErrorMessage        string          `json:"error,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
}

// Clone returns a deep-enough copy for handing a job record across the store
// boundary without sharing mutable state.
func (j *AnalysisJob) Clone() *AnalysisJob {
	out := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// QualityAssessment scores a technique execution per criterion.
type QualityAssessment struct {
	OverallScore    float64            `json:"overall_score"`
	Criteria        map[string]float64 `json:"criteria"`
	Feedback        string             `json:"feedback"`
	Recommendations []string           `json:"recommendations,omitempty"`
}

// AnalysisResult is the outcome of a completed technique analysis.
type AnalysisResult struct {
	Technique  string            `json:"technique"`
	Confidence float64           `json:"confidence"`
	Quality    QualityAssessment `json:"quality_assessment"`
	MartialArt Discipline        `json:"martial_art"`
	Keypoints  pose.Sequence     `json:"keypoints"`
	Details    map[string]string `json:"analysis_details,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// ComparisonResult relates two executions of a technique. A failed comparison
// is reported through the Error field rather than an empty payload.
type ComparisonResult struct {
	RelativeQuality string              `json:"relative_quality,omitempty"`
	KeyDifferences  []string            `json:"key_differences,omitempty"`
	Strengths       map[string][]string `json:"strengths,omitempty"`
	Weaknesses      map[string][]string `json:"weaknesses,omitempty"`
	Recommendations map[string]string   `json:"recommendations,omitempty"`
	Error           string              `json:"error,omitempty"`
}
