package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// probe holds the stream properties needed to slice raw frames.
type probe struct {
	Width      int
	Height     int
	FrameCount int
}

type probeOutput struct {
	Streams []struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		NbFrames string `json:"nb_frames"`
	} `json:"streams"`
}

func runProbe(ctx context.Context, ffprobe, path string) (probe, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,nb_frames",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return probe{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseProbe(output)
}

func parseProbe(data []byte) (probe, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return probe{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return probe{}, fmt.Errorf("no video stream")
	}
	s := out.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return probe{}, fmt.Errorf("invalid frame size %dx%d", s.Width, s.Height)
	}

	// nb_frames is absent or "N/A" for some containers
	count, err := strconv.Atoi(strings.TrimSpace(s.NbFrames))
	if err != nil || count < 0 {
		count = 0
	}
	return probe{Width: s.Width, Height: s.Height, FrameCount: count}, nil
}
