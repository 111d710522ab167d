package video

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// TargetSize is the fixed edge length every frame is normalized to before
// pose inference.
const TargetSize = 256

// ErrEmptyInput indicates Normalize was handed zero frames.
var ErrEmptyInput = errors.New("no frames to normalize")

// Normalize resizes every frame to TargetSize x TargetSize RGB. It is a
// pure, order-preserving map: output length and order match the input.
func Normalize(frames []*image.NRGBA) ([]*image.NRGBA, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyInput
	}

	out := make([]*image.NRGBA, len(frames))
	for i, frame := range frames {
		out[i] = imaging.Resize(frame, TargetSize, TargetSize, imaging.Lanczos)
	}
	return out, nil
}
