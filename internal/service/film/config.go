package film

import (
	"errors"
	"fmt"
	"strings"

	"github.com/animus-labs/flowreel/internal/ffmpeg"
)

const (
	DefaultFlow        = "TextToVideo"
	DefaultStep        = "generate_video_from_images"
	DefaultArtifactSet = "final_render"
	DefaultFPS         = 24
	DefaultFade        = ffmpeg.DefaultFadeDuration
	DefaultSaveDir     = "final_render"
	DefaultOutputName  = "final_video.mp4"
)

var (
	ErrInvalidVideoCount = errors.New("max videos must be at least 1")
	ErrNoClips           = errors.New("no clips found in exported runs")
	ErrNotEnoughClips    = errors.New("not enough clips for the requested film")
	ErrNoVideoTask       = errors.New("video step has no tasks")
)

type Config struct {
	Flow         string  `koanf:"flow"`
	Step         string  `koanf:"step"`
	ArtifactSet  string  `koanf:"artifact_set"`
	FPS          int     `koanf:"fps"`
	FadeDuration float64 `koanf:"fade_duration"`
}

func DefaultConfig() Config {
	return Config{
		Flow:         DefaultFlow,
		Step:         DefaultStep,
		ArtifactSet:  DefaultArtifactSet,
		FPS:          DefaultFPS,
		FadeDuration: DefaultFade,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Flow) == "" {
		return errors.New("video flow name is required")
	}
	if strings.TrimSpace(c.Step) == "" {
		return errors.New("video step name is required")
	}
	if strings.TrimSpace(c.ArtifactSet) == "" {
		return errors.New("artifact set name is required")
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.FadeDuration < 0 {
		return fmt.Errorf("fade duration must not be negative, got %v", c.FadeDuration)
	}
	return nil
}
