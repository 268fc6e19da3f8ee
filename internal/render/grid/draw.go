//go:build !nogrid

package grid

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/animus-labs/flowreel/internal/domain"
)

const (
	titleHeight = 18
	cellPadding = 4
)

// Available reports whether grid drawing is compiled in.
func Available() bool { return true }

// CanvasSize returns the pixel size of a grid drawn with opts.
func CanvasSize(opts Options) image.Point {
	return image.Pt(
		opts.Cols*(opts.Width+cellPadding)+cellPadding,
		opts.Rows*(opts.Height+titleHeight+cellPadding)+cellPadding,
	)
}

// cellOrigin is the top-left corner of the image area of cell i.
func cellOrigin(i int, opts Options) image.Point {
	row, col := i/opts.Cols, i%opts.Cols
	return image.Pt(
		cellPadding+col*(opts.Width+cellPadding),
		cellPadding+row*(opts.Height+titleHeight+cellPadding)+titleHeight,
	)
}

func (r *Renderer) draw(ctx context.Context, selected []domain.PromptRecord, opts Options) (*image.RGBA, error) {
	size := CanvasSize(opts)
	canvas := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for i, rec := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := r.data.TaskData(ctx, rec.TaskPathspec, rec.ImageRef)
		if err != nil {
			return nil, fmt.Errorf("image %s[%s]: %w", rec.TaskPathspec, rec.ImageRef, err)
		}
		src, format, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decode %s[%s]: %w", rec.TaskPathspec, rec.ImageRef, err)
		}
		origin := cellOrigin(i, opts)
		dst := image.Rect(origin.X, origin.Y, origin.X+opts.Width, origin.Y+opts.Height)
		draw.BiLinear.Scale(canvas, dst, src, src.Bounds(), draw.Over, nil)
		drawTitle(canvas, image.Pt(origin.X, origin.Y-titleHeight), opts.Width, rec.Title())
		r.logger.Debug("grid cell drawn", "cell", i, "task_pathspec", rec.TaskPathspec, "format", format)
	}
	return canvas, nil
}

func drawTitle(canvas *image.RGBA, at image.Point, width int, title string) {
	face := basicfont.Face7x13
	title = fitTitle(title, width/face.Advance)
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(at.X+2, at.Y+face.Ascent+2),
	}
	d.DrawString(title)
}

func fitTitle(title string, maxChars int) string {
	runes := []rune(title)
	if maxChars <= 0 {
		return ""
	}
	if len(runes) <= maxChars {
		return title
	}
	if maxChars <= 3 {
		return string(runes[:maxChars])
	}
	return string(runes[:maxChars-3]) + "..."
}
