package ffmpeg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultFadeDuration is the fade-in and fade-out length applied to every clip, in seconds.
const DefaultFadeDuration = 1.0

// Clip is a local video file and its duration in seconds.
type Clip struct {
	Path     string
	Duration float64
}

type ConcatOptions struct {
	Output       string
	FPS          int
	FadeDuration float64
	VideoCodec   string
	PixelFormat  string
}

// FadeFilter returns the per-clip filter chain: fade in from black over the
// first fade seconds, fade out over the last fade seconds, and reset timestamps.
func FadeFilter(duration, fade float64) string {
	fadeOutStart := max(0, duration-fade)
	return fmt.Sprintf("fade=t=in:st=0:d=%s,fade=t=out:st=%s:d=%s,setpts=PTS-STARTPTS",
		formatSeconds(fade), formatSeconds(fadeOutStart), formatSeconds(fade))
}

// FilterGraph builds the filter_complex joining clips in order.
func FilterGraph(clips []Clip, fade float64) string {
	var b strings.Builder
	for i, clip := range clips {
		fmt.Fprintf(&b, "[%d:v]%s[v%d];", i, FadeFilter(clip.Duration, fade), i)
	}
	for i := range clips {
		fmt.Fprintf(&b, "[v%d]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=0[out]", len(clips))
	return b.String()
}

// ConcatArgs builds the ffmpeg argument list (without the binary) that
// fades and concatenates clips into opts.Output.
func ConcatArgs(clips []Clip, opts ConcatOptions) ([]string, error) {
	if len(clips) == 0 {
		return nil, errors.New("at least one clip is required")
	}
	if strings.TrimSpace(opts.Output) == "" {
		return nil, errors.New("output path is required")
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("frame rate must be positive, got %d", opts.FPS)
	}
	if opts.FadeDuration < 0 {
		return nil, fmt.Errorf("fade duration must not be negative, got %v", opts.FadeDuration)
	}
	if opts.VideoCodec == "" {
		opts.VideoCodec = "libx264"
	}
	if opts.PixelFormat == "" {
		opts.PixelFormat = "yuv420p"
	}

	args := []string{"-hide_banner", "-nostdin", "-y"}
	for _, clip := range clips {
		args = append(args, "-i", clip.Path)
	}
	args = append(args,
		"-filter_complex", FilterGraph(clips, opts.FadeDuration),
		"-map", "[out]",
		"-an",
		"-r", strconv.Itoa(opts.FPS),
		"-c:v", opts.VideoCodec,
		"-pix_fmt", opts.PixelFormat,
		opts.Output,
	)
	return args, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
