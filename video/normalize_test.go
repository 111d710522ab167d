package video

import (
	"errors"
	"image"
	"testing"
)

func TestNormalize(t *testing.T) {
	frames := []*image.NRGBA{
		image.NewNRGBA(image.Rect(0, 0, 1920, 1080)),
		image.NewNRGBA(image.Rect(0, 0, 640, 480)),
		image.NewNRGBA(image.Rect(0, 0, 100, 300)),
	}

	normalized, err := Normalize(frames)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(normalized) != len(frames) {
		t.Fatalf("Expected %d frames, got %d", len(frames), len(normalized))
	}
	for i, frame := range normalized {
		if frame.Bounds().Dx() != TargetSize || frame.Bounds().Dy() != TargetSize {
			t.Errorf("Frame %d has size %dx%d, want %dx%d",
				i, frame.Bounds().Dx(), frame.Bounds().Dy(), TargetSize, TargetSize)
		}
	}
}

func TestNormalize_AlreadyTargetSize(t *testing.T) {
	frames := []*image.NRGBA{image.NewNRGBA(image.Rect(0, 0, TargetSize, TargetSize))}

	normalized, err := Normalize(frames)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if normalized[0].Bounds().Dx() != TargetSize {
		t.Errorf("Unexpected width %d", normalized[0].Bounds().Dx())
	}
}

func TestNormalize_Empty(t *testing.T) {
	if _, err := Normalize(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
	if _, err := Normalize([]*image.NRGBA{}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}
