package compositor

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// VideoMetadata contains the stream information the pipeline cares about
type VideoMetadata struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Duration float64 `json:"duration_seconds"`
	Codec    string  `json:"codec"`
	HasAudio bool    `json:"has_audio"`
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe returns metadata for the first video stream of a file
func Probe(ctx context.Context, ffprobePath, path string) (*VideoMetadata, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-show_entries", "stream=codec_type,codec_name,width,height,r_frame_rate:format=duration",
		"-of", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (*VideoMetadata, error) {
	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	meta := &VideoMetadata{}
	foundVideo := false
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "audio":
			meta.HasAudio = true
		case "video", "":
			if foundVideo {
				continue
			}
			foundVideo = true
			meta.Width = stream.Width
			meta.Height = stream.Height
			meta.Codec = stream.CodecName

			// Frame rate comes as "num/den"
			var num, den int
			if _, err := fmt.Sscanf(stream.RFrameRate, "%d/%d", &num, &den); err == nil && den > 0 {
				meta.FPS = float64(num) / float64(den)
			}
		}
	}
	if !foundVideo {
		return nil, fmt.Errorf("no video streams found")
	}

	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			meta.Duration = d
		}
	}

	return meta, nil
}

// ExtractFrame writes a single frame of videoPath at the given offset
func ExtractFrame(ctx context.Context, ffmpegPath, videoPath string, at time.Duration, outputPath string) error {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-y",
		"-ss", formatTimestamp(at),
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

// formatTimestamp formats a duration for ffmpeg (HH:MM:SS.mmm)
func formatTimestamp(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := d.Seconds() - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, seconds)
}
