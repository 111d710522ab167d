package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when the watsonx credentials are missing.
var ErrNotConfigured = errors.New("watsonx credentials not configured")

const apiVersion = "2024-05-31"

// WatsonxClient calls the IBM watsonx.ai text generation REST API.
type WatsonxClient struct {
	baseURL   string
	apiKey    string
	projectID string
	client    *http.Client
	logger    *zap.Logger
}

func NewWatsonxClient(baseURL, apiKey, projectID string, logger *zap.Logger) *WatsonxClient {
	if baseURL == "" {
		baseURL = "https://us-south.ml.cloud.ibm.com"
	}
	return &WatsonxClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		projectID: projectID,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: logger,
	}
}

type generationRequest struct {
	ModelID    string               `json:"model_id"`
	ProjectID  string               `json:"project_id"`
	Input      string               `json:"input"`
	Parameters generationParameters `json:"parameters"`
}

type generationParameters struct {
	DecodingMethod string  `json:"decoding_method"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
}

type generationResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
	} `json:"results"`
}

func (c *WatsonxClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if c.apiKey == "" || c.projectID == "" {
		return "", ErrNotConfigured
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	body, err := json.Marshal(generationRequest{
		ModelID:   model,
		ProjectID: c.projectID,
		Input:     req.System + "\n\n" + req.User,
		Parameters: generationParameters{
			DecodingMethod: "greedy",
			MaxNewTokens:   maxTokens,
			Temperature:    req.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/ml/v1/text/generation?version=%s", c.baseURL, apiVersion)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("watsonx request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("watsonx returned non-OK status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", detail),
		)
		return "", fmt.Errorf("watsonx returned status %d", resp.StatusCode)
	}

	var out generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode watsonx response: %w", err)
	}
	if len(out.Results) == 0 {
		return "", errors.New("watsonx response carried no results")
	}

	c.logger.Debug("watsonx generation completed",
		zap.String("model", model),
		zap.Duration("duration", time.Since(start)),
	)
	return out.Results[0].GeneratedText, nil
}
