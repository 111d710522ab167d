// Package reasoning talks to an external text-generation service used for
// technique classification and quality judgments. Responses are untrusted
// free text; callers must parse them defensively.
package reasoning

import "context"

// DefaultModel is the generation model used when a request names none.
const DefaultModel = "granite-3.0-8b-instruct"

// GenerateRequest carries one prompt to the reasoning service.
type GenerateRequest struct {
	System      string
	User        string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client generates text for a system/user prompt pair.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
