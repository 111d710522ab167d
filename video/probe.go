package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// VideoInfo summarizes the first video stream of a source file.
type VideoInfo struct {
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frame_count"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Duration   float64 `json:"duration"`
	Resolution string  `json:"resolution"`
	FileSize   int64   `json:"file_size"`
}

type probeOutput struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NbFrames   string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Info probes a video file with ffprobe. It fails with ErrDecode when the
// source cannot be opened as a video.
func (e *Extractor) Info(ctx context.Context, path string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("%w: ffprobe: %v", ErrDecode, err)
	}

	info, err := parseProbeOutput(out)
	if err != nil {
		return VideoInfo{}, err
	}

	if st, statErr := os.Stat(path); statErr == nil {
		info.FileSize = st.Size()
	}
	return info, nil
}

func parseProbeOutput(out []byte) (VideoInfo, error) {
	var probed probeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return VideoInfo{}, fmt.Errorf("%w: parse ffprobe output: %v", ErrDecode, err)
	}
	if len(probed.Streams) == 0 {
		return VideoInfo{}, fmt.Errorf("%w: no video stream found", ErrDecode)
	}

	stream := probed.Streams[0]
	info := VideoInfo{
		Width:      stream.Width,
		Height:     stream.Height,
		Resolution: fmt.Sprintf("%dx%d", stream.Width, stream.Height),
		FPS:        parseFrameRate(stream.RFrameRate),
	}

	if n, err := strconv.Atoi(stream.NbFrames); err == nil {
		info.FrameCount = n
	} else if dur, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil && info.FPS > 0 {
		// Some containers carry no frame count; estimate from duration.
		info.FrameCount = int(dur * info.FPS)
	}

	if info.FPS > 0 {
		info.Duration = float64(info.FrameCount) / info.FPS
	}
	return info, nil
}

// parseFrameRate parses ffprobe's rational frame rate ("30000/1001").
func parseFrameRate(r string) float64 {
	num, den, found := strings.Cut(r, "/")
	if !found {
		f, _ := strconv.ParseFloat(r, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
