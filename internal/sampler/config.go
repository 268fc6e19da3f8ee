package sampler

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ModelOrg      = "stabilityai"
	ModelName     = "stable-video-diffusion-img2vid"
	ModelFile     = "svd.safetensors"
	DefaultModels = "./video-models"
	DefaultModel  = "svd"
)

// DefaultModelURL is the Hugging Face download location of the image-to-video weights.
var DefaultModelURL = fmt.Sprintf("https://huggingface.co/%s/%s/resolve/main/%s", ModelOrg, ModelName, ModelFile)

type Config struct {
	// Command is the sampler executable and its leading arguments. Generation
	// parameters are appended as flags.
	Command      []string `koanf:"command"`
	ModelVersion string   `koanf:"model_version"`
	ModelDir     string   `koanf:"model_dir"`
	ModelURL     string   `koanf:"model_url"`
	// HFToken authenticates model downloads when set.
	HFToken     string   `koanf:"hf_token"`
	DeviceProbe []string `koanf:"device_probe"`
	TempDir     string   `koanf:"temp_dir"`
}

func DefaultConfig() Config {
	return Config{
		Command:      []string{"python", "-m", "stability_gen_models.simple_sample_video"},
		ModelVersion: DefaultModel,
		ModelDir:     DefaultModels,
		ModelURL:     DefaultModelURL,
		DeviceProbe:  []string{"nvidia-smi", "-L"},
	}
}

func (c Config) Validate() error {
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return errors.New("sampler command is required")
	}
	if strings.TrimSpace(c.ModelURL) == "" {
		return errors.New("model url is required")
	}
	return nil
}

// GenerationConfig holds the diffusion sampling parameters.
type GenerationConfig struct {
	NumFrames         int  `koanf:"num_frames" json:"num_frames"`
	NumSteps          int  `koanf:"num_steps" json:"num_steps"`
	FrameRate         int  `koanf:"frame_rate" json:"frame_rate"`
	MotionBucketID    int  `koanf:"motion_bucket_id" json:"motion_bucket_id"`
	DecodingTimesteps int  `koanf:"decoding_timesteps" json:"decoding_timesteps"`
	LowVRAMMode       bool `koanf:"low_vram_mode" json:"low_vram_mode"`
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		NumFrames:         14,
		NumSteps:          25,
		FrameRate:         6,
		MotionBucketID:    127,
		DecodingTimesteps: 14,
	}
}

func (g GenerationConfig) Validate() error {
	if g.NumFrames <= 0 {
		return fmt.Errorf("num frames must be positive, got %d", g.NumFrames)
	}
	if g.NumSteps <= 0 {
		return fmt.Errorf("num steps must be positive, got %d", g.NumSteps)
	}
	if g.FrameRate <= 0 {
		return fmt.Errorf("frame rate must be positive, got %d", g.FrameRate)
	}
	if g.MotionBucketID < 0 {
		return fmt.Errorf("motion bucket id must not be negative, got %d", g.MotionBucketID)
	}
	if g.DecodingTimesteps <= 0 {
		return fmt.Errorf("decoding timesteps must be positive, got %d", g.DecodingTimesteps)
	}
	return nil
}
