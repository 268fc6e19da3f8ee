package ffmpeg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type ffprobeOutput struct {
	Format struct {
		Filename string `json:"filename"`
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeArgs returns the ffprobe arguments reporting the container duration of path.
func ProbeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	}
}

// ParseDuration reads the format duration in seconds from ffprobe JSON output.
// Exported for testing without a real ffprobe binary.
func ParseDuration(data []byte) (float64, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	value := strings.TrimSpace(raw.Format.Duration)
	if value == "" || value == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration for %q", raw.Format.Filename)
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", value, err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("non-positive duration %v for %q", seconds, raw.Format.Filename)
	}
	return seconds, nil
}
