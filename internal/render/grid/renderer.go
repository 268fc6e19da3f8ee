// Package grid draws prompt record images into a captioned rows x cols grid.
package grid

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/animus-labs/flowreel/internal/domain"
)

var ErrRenderingUnavailable = errors.New("grid rendering is not available in this build")

const (
	DefaultRows   = 4
	DefaultCols   = 4
	DefaultWidth  = 300
	DefaultHeight = 300
)

// TaskData reads a named artifact of a task.
type TaskData interface {
	TaskData(ctx context.Context, taskPathspec, name string) ([]byte, error)
}

type Options struct {
	Prompt string
	Style  string
	Match  MatchMode
	Rows   int
	Cols   int
	Width  int
	Height int
	Random bool
}

func DefaultOptions() Options {
	return Options{
		Match:  MatchAll,
		Rows:   DefaultRows,
		Cols:   DefaultCols,
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}
}

func (o Options) Validate() error {
	if o.Rows <= 0 || o.Cols <= 0 {
		return fmt.Errorf("grid must have at least one row and column, got %dx%d", o.Rows, o.Cols)
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("cell size must be positive, got %dx%d", o.Width, o.Height)
	}
	if o.Match != MatchAll && o.Match != MatchAny {
		return fmt.Errorf("unknown match mode %d", o.Match)
	}
	return nil
}

type Renderer struct {
	data   TaskData
	logger *slog.Logger
	rng    *rand.Rand
}

func NewRenderer(data TaskData, logger *slog.Logger) (*Renderer, error) {
	if data == nil {
		return nil, errors.New("task data reader is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	seed := uint64(time.Now().UnixNano())
	return &Renderer{
		data:   data,
		logger: logger,
		rng:    rand.New(rand.NewPCG(seed, seed>>1)),
	}, nil
}

// WithRand replaces the random source used for random selection.
func (r *Renderer) WithRand(rng *rand.Rand) *Renderer {
	if rng != nil {
		r.rng = rng
	}
	return r
}

// Render filters records and draws the selected images. When nothing matches
// the filters it logs and returns a nil image without error.
func (r *Renderer) Render(ctx context.Context, records []domain.PromptRecord, opts Options) (*image.RGBA, error) {
	if r == nil || r.data == nil {
		return nil, errors.New("grid renderer not initialized")
	}
	if !Available() {
		return nil, ErrRenderingUnavailable
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	filtered := Filter(records, opts.Prompt, opts.Style, opts.Match)
	if len(filtered) == 0 {
		r.logger.Warn("no images could be filtered for prompt/style",
			"prompt", opts.Prompt,
			"style", opts.Style,
			"match", opts.Match.String(),
		)
		return nil, nil
	}

	selected := pick(filtered, opts.Rows*opts.Cols, opts.Random, r.rng)
	canvas, err := r.draw(ctx, selected, opts)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("grid rendered",
		"records", len(records),
		"matched", len(filtered),
		"cells", len(selected),
	)
	return canvas, nil
}
