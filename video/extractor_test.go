package video

import (
	"bytes"
	"testing"
)

func TestKeyFrameIndices(t *testing.T) {
	tests := []struct {
		name     string
		total, n int
		want     []int
	}{
		{"fewer frames than requested", 3, 10, []int{0, 1, 2}},
		{"exact", 4, 4, []int{0, 1, 2, 3}},
		{"evenly spaced", 100, 5, []int{0, 25, 50, 74, 99}},
		{"single", 100, 1, []int{0}},
		{"two endpoints", 100, 2, []int{0, 99}},
		{"empty video", 0, 5, nil},
		{"zero requested", 100, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeyFrameIndices(tt.total, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestKeyFrameIndices_Properties(t *testing.T) {
	for _, total := range []int{10, 37, 999, 5000} {
		for _, n := range []int{2, 5, 10, 16} {
			got := KeyFrameIndices(total, n)
			if total <= n {
				continue
			}
			if len(got) != n {
				t.Fatalf("total=%d n=%d: expected %d indices, got %d", total, n, n, len(got))
			}
			if got[0] != 0 || got[len(got)-1] != total-1 {
				t.Errorf("total=%d n=%d: endpoints %d..%d", total, n, got[0], got[len(got)-1])
			}
			for i := 1; i < len(got); i++ {
				if got[i] <= got[i-1] {
					t.Errorf("total=%d n=%d: indices not strictly increasing: %v", total, n, got)
				}
			}
		}
	}
}

func TestParseProbeOutput(t *testing.T) {
	out := []byte(`{
		"streams": [{"width": 1920, "height": 1080, "r_frame_rate": "30/1", "nb_frames": "90"}],
		"format": {"duration": "3.000000"}
	}`)

	info, err := parseProbeOutput(out)
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Errorf("Unexpected geometry %dx%d", info.Width, info.Height)
	}
	if info.Resolution != "1920x1080" {
		t.Errorf("Unexpected resolution %q", info.Resolution)
	}
	if info.FPS != 30 {
		t.Errorf("Unexpected fps %v", info.FPS)
	}
	if info.FrameCount != 90 {
		t.Errorf("Unexpected frame count %d", info.FrameCount)
	}
	if info.Duration != 3 {
		t.Errorf("Unexpected duration %v", info.Duration)
	}
}

func TestParseProbeOutput_FrameCountFromDuration(t *testing.T) {
	out := []byte(`{
		"streams": [{"width": 640, "height": 480, "r_frame_rate": "25/1"}],
		"format": {"duration": "4.0"}
	}`)

	info, err := parseProbeOutput(out)
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}
	if info.FrameCount != 100 {
		t.Errorf("Expected frame count estimated from duration, got %d", info.FrameCount)
	}
}

func TestParseProbeOutput_NoStream(t *testing.T) {
	if _, err := parseProbeOutput([]byte(`{"streams": []}`)); err == nil {
		t.Fatal("Expected error for missing video stream")
	}
	if _, err := parseProbeOutput([]byte(`not json`)); err == nil {
		t.Fatal("Expected error for malformed output")
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001.0},
		{"25", 25},
		{"0/0", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseFrameRate(tt.in); got != tt.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func rawStream(width, height, frames int) []byte {
	buf := make([]byte, 0, width*height*3*frames)
	for f := 0; f < frames; f++ {
		frame := make([]byte, width*height*3)
		for i := range frame {
			frame[i] = byte(f)
		}
		buf = append(buf, frame...)
	}
	return buf
}

func TestReadFrames(t *testing.T) {
	stream := rawStream(4, 4, 5)

	frames, err := readFrames(bytes.NewReader(stream), 4, 4, 10, nil)
	if err != nil {
		t.Fatalf("readFrames failed: %v", err)
	}
	if len(frames) != 5 {
		t.Fatalf("Expected 5 frames, got %d", len(frames))
	}

	for f, img := range frames {
		if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
			t.Fatalf("Frame %d has bounds %v", f, img.Bounds())
		}
		if img.Pix[0] != byte(f) {
			t.Errorf("Frame %d pixel value %d", f, img.Pix[0])
		}
		if img.Pix[3] != 0xFF {
			t.Errorf("Frame %d alpha %d", f, img.Pix[3])
		}
	}
}

func TestReadFrames_CapsAtMax(t *testing.T) {
	stream := rawStream(4, 4, 10)

	frames, err := readFrames(bytes.NewReader(stream), 4, 4, 3, nil)
	if err != nil {
		t.Fatalf("readFrames failed: %v", err)
	}
	if len(frames) != 3 {
		t.Errorf("Expected cap at 3 frames, got %d", len(frames))
	}
}

func TestReadFrames_KeepSubset(t *testing.T) {
	stream := rawStream(4, 4, 10)

	keep := map[int]bool{0: true, 4: true, 9: true}
	frames, err := readFrames(bytes.NewReader(stream), 4, 4, 10, keep)
	if err != nil {
		t.Fatalf("readFrames failed: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("Expected 3 kept frames, got %d", len(frames))
	}
	for i, want := range []byte{0, 4, 9} {
		if frames[i].Pix[0] != want {
			t.Errorf("Kept frame %d has value %d, want %d", i, frames[i].Pix[0], want)
		}
	}
}

func TestReadFrames_PartialTrailingFrame(t *testing.T) {
	stream := rawStream(4, 4, 2)
	stream = append(stream, 0x01, 0x02)

	frames, err := readFrames(bytes.NewReader(stream), 4, 4, 10, nil)
	if err != nil {
		t.Fatalf("readFrames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Errorf("Partial trailing frame should be dropped, got %d frames", len(frames))
	}
}
