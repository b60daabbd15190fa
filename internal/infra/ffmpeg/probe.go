package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// VideoInfo is what ffprobe reports about the first video stream.
type VideoInfo struct {
	Width    int
	Height   int
	Duration float64
}

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func probe(ctx context.Context, ffprobe, videoPath string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "json",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 || out.Streams[0].Width <= 0 || out.Streams[0].Height <= 0 {
		return VideoInfo{}, fmt.Errorf("no video stream found")
	}

	info := VideoInfo{Width: out.Streams[0].Width, Height: out.Streams[0].Height}
	if d := strings.TrimSpace(out.Format.Duration); d != "" {
		duration, err := strconv.ParseFloat(d, 64)
		if err != nil {
			return VideoInfo{}, fmt.Errorf("parse duration: %w", err)
		}
		info.Duration = duration
	}
	return info, nil
}
