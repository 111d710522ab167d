package pose

import (
	"context"
	"errors"
	"image"
)

// ErrInference indicates the pose model could not produce keypoints for a frame.
var ErrInference = errors.New("pose inference failed")

// Detector produces keypoint coordinates for a single normalized frame.
// Implementations must return exactly NumKeypoints (x, y) pairs in frame
// pixel space, in KeypointNames order.
type Detector interface {
	Detect(ctx context.Context, frame *image.NRGBA) ([][2]float64, error)
}
