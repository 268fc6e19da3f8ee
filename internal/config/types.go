// Package config assembles flowreel configuration from defaults, an optional
// YAML file, FLOWREEL_ environment variables, and command-line flags.
package config

import (
	"fmt"

	"github.com/animus-labs/flowreel/internal/ffmpeg"
	"github.com/animus-labs/flowreel/internal/platform/logging"
	"github.com/animus-labs/flowreel/internal/platform/objectstore"
	"github.com/animus-labs/flowreel/internal/platform/postgres"
	"github.com/animus-labs/flowreel/internal/render/grid"
	"github.com/animus-labs/flowreel/internal/sampler"
	"github.com/animus-labs/flowreel/internal/service/film"
	"github.com/animus-labs/flowreel/internal/service/prompts"
)

type Config struct {
	Log         logging.Config     `koanf:"log"`
	Database    postgres.Config    `koanf:"database"`
	ObjectStore objectstore.Config `koanf:"object_store"`
	// Namespace scopes interactive run listings only.
	Namespace  string                   `koanf:"namespace"`
	Prompts    prompts.Config           `koanf:"prompts"`
	Grid       GridConfig               `koanf:"grid"`
	Film       film.Config              `koanf:"film"`
	FFmpeg     ffmpeg.Config            `koanf:"ffmpeg"`
	Sampler    sampler.Config           `koanf:"sampler"`
	Generation sampler.GenerationConfig `koanf:"generation"`
}

type GridConfig struct {
	Rows   int    `koanf:"rows"`
	Cols   int    `koanf:"cols"`
	Width  int    `koanf:"width"`
	Height int    `koanf:"height"`
	Match  string `koanf:"match"`
}

// Options converts the grid settings into renderer options.
func (g GridConfig) Options() (grid.Options, error) {
	mode, ok := grid.ParseMatchMode(g.Match)
	if !ok {
		return grid.Options{}, fmt.Errorf("grid.match must be \"all\" or \"any\", got %q", g.Match)
	}
	opts := grid.Options{
		Match:  mode,
		Rows:   g.Rows,
		Cols:   g.Cols,
		Width:  g.Width,
		Height: g.Height,
	}
	return opts, opts.Validate()
}

func Default() Config {
	return Config{
		Log:         logging.DefaultConfig(),
		Database:    postgres.DefaultConfig(),
		ObjectStore: objectstore.DefaultConfig(),
		Prompts:     prompts.DefaultConfig(),
		Grid: GridConfig{
			Rows:   grid.DefaultRows,
			Cols:   grid.DefaultCols,
			Width:  grid.DefaultWidth,
			Height: grid.DefaultHeight,
			Match:  grid.MatchAll.String(),
		},
		Film:       film.DefaultConfig(),
		FFmpeg:     ffmpeg.DefaultConfig(),
		Sampler:    sampler.DefaultConfig(),
		Generation: sampler.DefaultGenerationConfig(),
	}
}

func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"log", c.Log.Validate},
		{"database", c.Database.Validate},
		{"object_store", c.ObjectStore.Validate},
		{"prompts", c.Prompts.Validate},
		{"grid", func() error { _, err := c.Grid.Options(); return err }},
		{"film", c.Film.Validate},
		{"ffmpeg", c.FFmpeg.Validate},
		{"sampler", c.Sampler.Validate},
		{"generation", c.Generation.Validate},
	}
	for _, check := range checks {
		if err := check.fn(); err != nil {
			return fmt.Errorf("%s: %w", check.name, err)
		}
	}
	return nil
}
