package analyzer

import (
	"encoding/json"
	"strings"

	"dojolens/models"
)

// The reasoning service returns free text. These parsers extract the first
// JSON object from it and never fail the analysis: when parsing is
// impossible the caller substitutes a documented fallback payload. Returned
// text is never evaluated as code.

type classification struct {
	Technique          string   `json:"technique"`
	Confidence         float64  `json:"confidence"`
	KeyCharacteristics []string `json:"key_characteristics"`
	Improvements       []string `json:"improvements"`
}

func parseClassification(raw string) (classification, bool) {
	payload, ok := extractJSONObject(raw)
	if !ok {
		return classification{}, false
	}
	var out classification
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return classification{}, false
	}
	if out.Technique == "" {
		return classification{}, false
	}
	return out, true
}

// qualityPayload mirrors QualityAssessment with a pointer score, so an
// explicit zero score is distinguishable from an absent field.
type qualityPayload struct {
	OverallScore    *float64           `json:"overall_score"`
	Criteria        map[string]float64 `json:"criteria"`
	Feedback        string             `json:"feedback"`
	Recommendations []string           `json:"recommendations"`
}

func parseQuality(raw string) (models.QualityAssessment, bool) {
	payload, ok := extractJSONObject(raw)
	if !ok {
		return models.QualityAssessment{}, false
	}
	var out qualityPayload
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return models.QualityAssessment{}, false
	}
	if out.OverallScore == nil && out.Criteria == nil {
		return models.QualityAssessment{}, false
	}

	quality := models.QualityAssessment{
		Criteria:        out.Criteria,
		Feedback:        out.Feedback,
		Recommendations: out.Recommendations,
	}
	if out.OverallScore != nil {
		quality.OverallScore = *out.OverallScore
	}
	if quality.Criteria == nil {
		quality.Criteria = map[string]float64{}
	}
	return quality, true
}

func parseComparison(raw string) (models.ComparisonResult, bool) {
	payload, ok := extractJSONObject(raw)
	if !ok {
		return models.ComparisonResult{}, false
	}
	var out models.ComparisonResult
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return models.ComparisonResult{}, false
	}
	if out.RelativeQuality == "" && len(out.KeyDifferences) == 0 {
		return models.ComparisonResult{}, false
	}
	return out, true
}

// extractJSONObject returns the outermost {...} span in the text, which
// tolerates models that wrap their JSON answer in prose.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
