package film

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/animus-labs/flowreel/internal/ffmpeg"
)

// VideoTool probes and stitches clips.
type VideoTool interface {
	Duration(ctx context.Context, path string) (float64, error)
	Concat(ctx context.Context, clips []ffmpeg.Clip, output string, fps int, fade float64) error
}

type MovieOptions struct {
	ExportOptions
	// MaxVideos samples that many clips at random. Nil uses every clip.
	MaxVideos *int
	// FPS defaults to the configured frame rate.
	FPS int
	// OutputPath defaults to final_video.mp4 under the working directory.
	OutputPath string
}

type Assembler struct {
	exporter *Exporter
	video    VideoTool
	cfg      Config
	logger   *slog.Logger
	rng      *rand.Rand
}

func NewAssembler(exporter *Exporter, video VideoTool, logger *slog.Logger) (*Assembler, error) {
	if exporter == nil {
		return nil, errors.New("exporter is required")
	}
	if video == nil {
		return nil, errors.New("video tool is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	seed := uint64(time.Now().UnixNano())
	return &Assembler{
		exporter: exporter,
		video:    video,
		cfg:      exporter.cfg,
		logger:   logger,
		rng:      rand.New(rand.NewPCG(seed, seed>>1)),
	}, nil
}

// WithRand replaces the random source used for clip sampling.
func (a *Assembler) WithRand(rng *rand.Rand) *Assembler {
	if rng != nil {
		a.rng = rng
	}
	return a
}

// MakeMovie exports the selected runs and encodes their clips into one film,
// returning the output path.
func (a *Assembler) MakeMovie(ctx context.Context, opts MovieOptions) (string, error) {
	if a == nil || a.exporter == nil {
		return "", errors.New("assembler not initialized")
	}
	if opts.MaxVideos != nil && *opts.MaxVideos < 1 {
		return "", fmt.Errorf("%w, got %d", ErrInvalidVideoCount, *opts.MaxVideos)
	}
	fps := opts.FPS
	if fps == 0 {
		fps = a.cfg.FPS
	}
	if fps < 0 {
		return "", fmt.Errorf("fps must be positive, got %d", fps)
	}
	output := strings.TrimSpace(opts.OutputPath)
	if output == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		output = filepath.Join(cwd, DefaultOutputName)
		a.logger.Warn("no output path specified, using default", "path", output)
	}

	exported, err := a.exporter.Export(ctx, opts.ExportOptions)
	if err != nil {
		return "", err
	}
	paths, err := exportedClips(exported)
	if err != nil {
		return "", fmt.Errorf("discover clips: %w", err)
	}
	if len(paths) == 0 {
		return "", ErrNoClips
	}
	if opts.MaxVideos != nil {
		paths, err = a.sample(paths, *opts.MaxVideos)
		if err != nil {
			return "", err
		}
	}

	clips := make([]ffmpeg.Clip, 0, len(paths))
	for _, path := range paths {
		duration, err := a.video.Duration(ctx, path)
		if err != nil {
			return "", err
		}
		clips = append(clips, ffmpeg.Clip{Path: path, Duration: duration})
	}
	if err := a.video.Concat(ctx, clips, output, fps, a.cfg.FadeDuration); err != nil {
		return "", err
	}
	a.logger.Info("film written", "clips", len(clips), "runs", len(exported), "fps", fps, "path", output)
	return output, nil
}

// sample draws n distinct clips in random order.
func (a *Assembler) sample(paths []string, n int) ([]string, error) {
	if n > len(paths) {
		return nil, fmt.Errorf("%w: requested %d, found %d", ErrNotEnoughClips, n, len(paths))
	}
	out := make([]string, 0, n)
	for _, i := range a.rng.Perm(len(paths))[:n] {
		out = append(out, paths[i])
	}
	return out, nil
}
