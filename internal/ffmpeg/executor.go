package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

const stderrTailLines = 20

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandError carries the tail of a failed command's stderr.
type CommandError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec, capturing stderr. When Tee is set,
// stderr is also copied to it in real time.
type ExecRunner struct {
	Tee io.Writer
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if r.Tee != nil {
		cmd.Stderr = io.MultiWriter(&stderr, r.Tee)
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &CommandError{Name: name, Stderr: tail(stderr.String(), stderrTailLines), Err: err}
	}
	return stdout.Bytes(), nil
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Tool probes and stitches clips with the configured binaries.
type Tool struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, runner Runner, logger *slog.Logger) (*Tool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if runner == nil {
		var tee io.Writer
		if cfg.Verbose {
			tee = os.Stderr
		}
		runner = ExecRunner{Tee: tee}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tool{cfg: cfg, runner: runner, logger: logger}, nil
}

// Duration returns the duration of the video at path in seconds.
func (t *Tool) Duration(ctx context.Context, path string) (float64, error) {
	if t == nil || t.runner == nil {
		return 0, errors.New("ffmpeg tool not initialized")
	}
	out, err := t.runner.Run(ctx, t.cfg.FFprobePath, ProbeArgs(path)...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	seconds, err := ParseDuration(out)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return seconds, nil
}

// Concat fades and joins clips in order into output at fps frames per second.
func (t *Tool) Concat(ctx context.Context, clips []Clip, output string, fps int, fade float64) error {
	if t == nil || t.runner == nil {
		return errors.New("ffmpeg tool not initialized")
	}
	args, err := ConcatArgs(clips, ConcatOptions{
		Output:       output,
		FPS:          fps,
		FadeDuration: fade,
		VideoCodec:   t.cfg.VideoCodec,
		PixelFormat:  t.cfg.PixelFormat,
	})
	if err != nil {
		return err
	}
	t.logger.Info("encoding film", "clips", len(clips), "fps", fps, "path", output)
	if _, err := t.runner.Run(ctx, t.cfg.FFmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg concat into %q: %w", output, err)
	}
	return nil
}
