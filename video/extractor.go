package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"dojolens/validation"
)

// DefaultMaxFrames caps how many frames are decoded from a single video,
// independent of its length.
const DefaultMaxFrames = 1000

var (
	// ErrDecode indicates the blob could not be opened as a video container.
	ErrDecode = errors.New("could not decode video")
	// ErrEmptyVideo indicates the container opened but produced no frames.
	ErrEmptyVideo = errors.New("no frames extracted from video")
)

// Extractor decodes video blobs into bounded raw frame sequences using
// ffmpeg. Decoders need random-access file semantics, so blobs are spooled
// to a temp file that is removed on every exit path.
type Extractor struct {
	maxFrames   int
	tempDir     string
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{
		maxFrames:   DefaultMaxFrames,
		tempDir:     os.TempDir(),
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		logger:      logger,
	}
}

// WithMaxFrames overrides the frame cap. Values below one keep the default.
func (e *Extractor) WithMaxFrames(n int) *Extractor {
	if n > 0 {
		e.maxFrames = n
	}
	return e
}

// Extract decodes up to maxFrames frames from a video blob, in display
// order. The blob is spooled to a temporary file for the decoder and the
// file is released whether or not extraction succeeds.
func (e *Extractor) Extract(ctx context.Context, data []byte) ([]*image.NRGBA, error) {
	path, err := e.spool(data)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	info, err := e.Info(ctx, path)
	if err != nil {
		return nil, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid stream geometry %dx%d", ErrDecode, info.Width, info.Height)
	}

	frames, err := e.decode(ctx, path, info.Width, info.Height, e.maxFrames, nil)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Extracted frames from video",
		zap.Int("frames", len(frames)),
		zap.String("resolution", info.Resolution),
	)
	return frames, nil
}

// ExtractKeyFrames decodes n evenly spaced frames across the full timeline
// of a video file. When the video has no more than n frames, every frame is
// returned.
func (e *Extractor) ExtractKeyFrames(ctx context.Context, path string, n int) ([]*image.NRGBA, error) {
	info, err := e.Info(ctx, path)
	if err != nil {
		return nil, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid stream geometry %dx%d", ErrDecode, info.Width, info.Height)
	}

	indices := KeyFrameIndices(info.FrameCount, n)
	if len(indices) == 0 {
		return nil, ErrEmptyVideo
	}

	want := make(map[int]bool, len(indices))
	for _, idx := range indices {
		want[idx] = true
	}
	// Key frames span the whole timeline, so decode up to the last wanted
	// index rather than the usual frame cap.
	limit := indices[len(indices)-1] + 1

	frames, err := e.decode(ctx, path, info.Width, info.Height, limit, want)
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// KeyFrameIndices selects n evenly spaced frame indices across total frames.
// When total <= n it returns every index in order; otherwise the indices are
// rounded to nearest, starting at 0 and ending at total-1.
func KeyFrameIndices(total, n int) []int {
	if total <= 0 || n <= 0 {
		return nil
	}
	if total <= n {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	if n == 1 {
		return []int{0}
	}

	indices := make([]int, n)
	step := float64(total-1) / float64(n-1)
	for i := 0; i < n; i++ {
		indices[i] = int(math.Round(float64(i) * step))
	}
	return indices
}

func (e *Extractor) spool(data []byte) (string, error) {
	suffix := validation.DetectContainer(data).Extension()
	f, err := os.CreateTemp(e.tempDir, "dojolens-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("create temp video: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp video: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp video: %w", err)
	}
	return f.Name(), nil
}

// decode streams raw RGB frames out of ffmpeg. When keep is non-nil only
// the listed frame indices are retained; either way no more than limit
// frames are decoded.
func (e *Extractor) decode(ctx context.Context, path string, width, height, limit int, keep map[int]bool) ([]*image.NRGBA, error) {
	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-i", path,
		"-frames:v", fmt.Sprint(limit),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", ErrDecode, err)
	}

	frames, readErr := readFrames(stdout, width, height, limit, keep)

	waitErr := cmd.Wait()
	if readErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, readErr)
	}
	if len(frames) == 0 {
		if waitErr != nil {
			return nil, fmt.Errorf("%w: ffmpeg: %v", ErrDecode, waitErr)
		}
		return nil, ErrEmptyVideo
	}
	if waitErr != nil {
		// The stream ended mid-decode; keep what was read.
		e.logger.Warn("ffmpeg exited with error after partial decode",
			zap.Int("frames", len(frames)),
			zap.Error(waitErr),
		)
	}
	return frames, nil
}

// readFrames slices a raw rgb24 stream into NRGBA frames of the given
// geometry, stopping at the frame cap or end of stream.
func readFrames(r io.Reader, width, height, max int, keep map[int]bool) ([]*image.NRGBA, error) {
	frameSize := width * height * 3
	buf := make([]byte, frameSize)

	var frames []*image.NRGBA
	for idx := 0; idx < max; idx++ {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			// Trailing partial frame; the stream ended.
			break
		}
		if err != nil {
			return nil, err
		}

		if keep != nil && !keep[idx] {
			continue
		}

		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < width*height; i++ {
			img.Pix[i*4+0] = buf[i*3+0]
			img.Pix[i*4+1] = buf[i*3+1]
			img.Pix[i*4+2] = buf[i*3+2]
			img.Pix[i*4+3] = 0xFF
		}
		frames = append(frames, img)
	}
	return frames, nil
}
