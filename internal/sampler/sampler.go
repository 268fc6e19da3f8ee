// Package sampler drives an external image-to-video diffusion sampler, one
// image at a time.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/animus-labs/flowreel/internal/ffmpeg"
)

var (
	ErrSequenceConsumed = errors.New("sample sequence already consumed")
	ErrNoVideo          = errors.New("sampler produced no video")
)

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Sample pairs an input image with the video generated from it.
type Sample struct {
	ImagePath string
	Image     []byte
	Video     []byte
}

type ImageToVideo struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, runner Runner, logger *slog.Logger) (*ImageToVideo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if runner == nil {
		runner = ffmpeg.ExecRunner{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ImageToVideo{cfg: cfg, runner: runner, logger: logger}, nil
}

// Generate returns a lazy sequence producing one sample per image path, in
// order. The sequence can be ranged over once; later ranges yield
// ErrSequenceConsumed. A sampler failure ends the sequence with its error.
func (s *ImageToVideo) Generate(ctx context.Context, modelVersion string, imagePaths []string, gen GenerationConfig, seed int64) iter.Seq2[Sample, error] {
	var used atomic.Bool
	paths := append([]string(nil), imagePaths...)

	return func(yield func(Sample, error) bool) {
		if used.Swap(true) {
			yield(Sample{}, ErrSequenceConsumed)
			return
		}
		if err := gen.Validate(); err != nil {
			yield(Sample{}, err)
			return
		}
		if strings.TrimSpace(modelVersion) == "" {
			modelVersion = s.cfg.ModelVersion
		}
		device := s.Device(ctx)
		s.logger.Info("sampling videos", "images", len(paths), "device", device, "model", modelVersion)

		for _, imagePath := range paths {
			if err := ctx.Err(); err != nil {
				yield(Sample{}, err)
				return
			}
			sample, err := s.sampleOne(ctx, imagePath, modelVersion, device, gen, seed)
			if err != nil {
				yield(Sample{}, err)
				return
			}
			if !yield(sample, nil) {
				return
			}
		}
	}
}

// sampleOne runs the sampler for one image inside its own temporary
// directory, which is removed before returning.
func (s *ImageToVideo) sampleOne(ctx context.Context, imagePath, modelVersion, device string, gen GenerationConfig, seed int64) (Sample, error) {
	dir, err := os.MkdirTemp(s.cfg.TempDir, "flowreel-sample-")
	if err != nil {
		return Sample{}, fmt.Errorf("create sample directory: %w", err)
	}
	defer os.RemoveAll(dir)

	args := append(append([]string(nil), s.cfg.Command[1:]...), SamplerArgs(imagePath, dir, modelVersion, device, gen, seed)...)
	if _, err := s.runner.Run(ctx, s.cfg.Command[0], args...); err != nil {
		return Sample{}, fmt.Errorf("sample %s: %w", imagePath, err)
	}
	videoPath, err := firstVideo(dir)
	if err != nil {
		return Sample{}, fmt.Errorf("sample %s: %w", imagePath, err)
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return Sample{}, fmt.Errorf("read image %s: %w", imagePath, err)
	}
	video, err := os.ReadFile(videoPath)
	if err != nil {
		return Sample{}, fmt.Errorf("read video %s: %w", videoPath, err)
	}
	s.logger.Debug("video sampled", "path", imagePath, "bytes", len(video))
	return Sample{ImagePath: imagePath, Image: image, Video: video}, nil
}

// SamplerArgs renders generation parameters as sampler flags.
func SamplerArgs(imagePath, outputDir, modelVersion, device string, gen GenerationConfig, seed int64) []string {
	args := []string{
		"--input_path", imagePath,
		"--num_frames", strconv.Itoa(gen.NumFrames),
		"--num_steps", strconv.Itoa(gen.NumSteps),
		"--version", modelVersion,
		"--fps_id", strconv.Itoa(gen.FrameRate),
		"--motion_bucket_id", strconv.Itoa(gen.MotionBucketID),
		"--seed", strconv.FormatInt(seed, 10),
		"--decoding_t", strconv.Itoa(gen.DecodingTimesteps),
		"--device", device,
		"--output_folder", outputDir,
	}
	if gen.LowVRAMMode {
		args = append(args, "--low_vram_mode")
	}
	return args
}

func firstVideo(dir string) (string, error) {
	var videos []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".mp4") {
			videos = append(videos, path)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(videos) == 0 {
		return "", ErrNoVideo
	}
	sort.Strings(videos)
	return videos[0], nil
}
