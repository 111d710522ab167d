package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ModelDetector calls a pose-estimation model server over HTTP. The server
// accepts a JPEG-encoded frame and answers with the keypoint coordinates for
// the most prominent person in it.
type ModelDetector struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewModelDetector(baseURL string, logger *zap.Logger) *ModelDetector {
	return &ModelDetector{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type detectResponse struct {
	Keypoints [][2]float64 `json:"keypoints"`
}

func (d *ModelDetector) Detect(ctx context.Context, frame *image.NRGBA) ([][2]float64, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("%w: encode frame: %v", ErrInference, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrInference, err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: model server returned status %d", ErrInference, resp.StatusCode)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrInference, err)
	}

	if len(out.Keypoints) != NumKeypoints {
		d.logger.Warn("Model returned unexpected keypoint count",
			zap.Int("got", len(out.Keypoints)),
			zap.Int("want", NumKeypoints),
		)
		return nil, fmt.Errorf("%w: got %d keypoints, want %d", ErrInference, len(out.Keypoints), NumKeypoints)
	}

	return out.Keypoints, nil
}
