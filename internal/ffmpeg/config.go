package ffmpeg

import (
	"errors"
	"strings"
)

type Config struct {
	FFmpegPath  string `koanf:"ffmpeg_path"`
	FFprobePath string `koanf:"ffprobe_path"`
	VideoCodec  string `koanf:"video_codec"`
	PixelFormat string `koanf:"pixel_format"`
	// Verbose tees ffmpeg stderr to the terminal.
	Verbose bool `koanf:"verbose"`
}

func DefaultConfig() Config {
	return Config{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		VideoCodec:  "libx264",
		PixelFormat: "yuv420p",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.FFmpegPath) == "" {
		return errors.New("ffmpeg path is required")
	}
	if strings.TrimSpace(c.FFprobePath) == "" {
		return errors.New("ffprobe path is required")
	}
	if strings.TrimSpace(c.VideoCodec) == "" {
		return errors.New("video codec is required")
	}
	if strings.TrimSpace(c.PixelFormat) == "" {
		return errors.New("pixel format is required")
	}
	return nil
}
