//go:build nogrid

package grid

import (
	"context"
	"image"

	"github.com/animus-labs/flowreel/internal/domain"
)

// Available reports whether grid drawing is compiled in.
func Available() bool { return false }

func (r *Renderer) draw(context.Context, []domain.PromptRecord, Options) (*image.RGBA, error) {
	return nil, ErrRenderingUnavailable
}
