package pose

import (
	"context"
	"image"
)

// skeletonAnchors places the canonical skeleton on a unit square, roughly an
// upright standing figure. Coordinates are scaled to the frame bounds.
var skeletonAnchors = [NumKeypoints][2]float64{
	{0.50, 0.10}, // nose
	{0.46, 0.08}, // left_eye
	{0.54, 0.08}, // right_eye
	{0.42, 0.10}, // left_ear
	{0.58, 0.10}, // right_ear
	{0.38, 0.24}, // left_shoulder
	{0.62, 0.24}, // right_shoulder
	{0.32, 0.40}, // left_elbow
	{0.68, 0.40}, // right_elbow
	{0.28, 0.54}, // left_wrist
	{0.72, 0.54}, // right_wrist
	{0.42, 0.55}, // left_hip
	{0.58, 0.55}, // right_hip
	{0.40, 0.74}, // left_knee
	{0.60, 0.74}, // right_knee
	{0.40, 0.93}, // left_ankle
	{0.60, 0.93}, // right_ankle
}

// SyntheticDetector is a deterministic stand-in for a real pose model. It
// anchors the canonical skeleton to the frame geometry and sways it by a
// value derived from the frame content, so identical frames always produce
// identical keypoints. It exists so the pipeline runs end to end when no
// model server is configured.
type SyntheticDetector struct{}

func NewSyntheticDetector() *SyntheticDetector {
	return &SyntheticDetector{}
}

func (d *SyntheticDetector) Detect(_ context.Context, frame *image.NRGBA) ([][2]float64, error) {
	bounds := frame.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	sway := contentSway(frame)

	coords := make([][2]float64, NumKeypoints)
	for i, anchor := range skeletonAnchors {
		coords[i] = [2]float64{
			anchor[0]*w + sway,
			anchor[1] * h,
		}
	}
	return coords, nil
}

// contentSway folds a handful of pixels into a small horizontal offset so
// that distinct frames yield distinct, yet reproducible, skeletons.
func contentSway(frame *image.NRGBA) float64 {
	bounds := frame.Bounds()
	var sum uint32
	step := bounds.Dy() / 8
	if step == 0 {
		step = 1
	}
	x := bounds.Min.X + bounds.Dx()/2
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		r, g, b, _ := frame.At(x, y).RGBA()
		sum += r + g + b
	}
	return float64(sum%9) - 4
}
