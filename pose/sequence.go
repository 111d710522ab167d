package pose

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch indicates a frame did not carry exactly NumKeypoints
// coordinate pairs.
var ErrShapeMismatch = errors.New("keypoint shape mismatch")

// BuildSequence zips per-frame coordinate pairs with the canonical keypoint
// names, producing a frame-indexed Sequence. Frame indices are assigned in
// input order starting at zero.
func BuildSequence(coords [][][2]float64) (Sequence, error) {
	seq := make(Sequence, 0, len(coords))

	for i, frame := range coords {
		if len(frame) != NumKeypoints {
			return nil, fmt.Errorf("%w: frame %d has %d keypoints, want %d",
				ErrShapeMismatch, i, len(frame), NumKeypoints)
		}

		kps := make([]Keypoint, NumKeypoints)
		for j, pt := range frame {
			kps[j] = Keypoint{
				Name:       KeypointNames[j],
				X:          pt[0],
				Y:          pt[1],
				Confidence: 1.0,
			}
		}
		seq = append(seq, Frame{Index: i, Keypoints: kps})
	}

	return seq, nil
}
