package dto

import "dojolens/models"

// SubmitResponse acknowledges a submission; the analysis itself runs in the
// background.
type SubmitResponse struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// AnalysisResponse is the read-by-id payload. While the job is still
// processing only Message is populated next to the metadata; Result and
// Error are mutually exclusive terminal fields.
type AnalysisResponse struct {
	ID                  string                 `json:"id"`
	Status              string                 `json:"status"`
	MartialArt          string                 `json:"martial_art,omitempty"`
	ConfidenceThreshold float64                `json:"confidence_threshold,omitempty"`
	Filename            string                 `json:"filename,omitempty"`
	Result              *models.AnalysisResult `json:"result,omitempty"`
	Error               string                 `json:"error,omitempty"`
	Message             string                 `json:"message,omitempty"`
	CreatedAt           string                 `json:"created_at,omitempty"`
	CompletedAt         *string                `json:"completed_at,omitempty"`
}

// ListResponse pages through analyses, newest first.
type ListResponse struct {
	Analyses []AnalysisResponse `json:"analyses"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
	HasMore  bool               `json:"has_more"`
}

// MartialArtsResponse wraps the static discipline catalog.
type MartialArtsResponse struct {
	MartialArts []models.DisciplineInfo `json:"martial_arts"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}
