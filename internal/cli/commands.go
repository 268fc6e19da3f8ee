package cli

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/render/grid"
	"github.com/animus-labs/flowreel/internal/repo"
	repopostgres "github.com/animus-labs/flowreel/internal/repo/postgres"
	"github.com/animus-labs/flowreel/internal/service/film"
	"github.com/animus-labs/flowreel/internal/service/prompts"
	"github.com/animus-labs/flowreel/internal/service/runs"
)

// NewRunsCommand lists runs of a flow.
func NewRunsCommand() *cobra.Command {
	var (
		sel    selectionFlags
		flow   string
		limit  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs of a flow",
		Long: `List runs of a flow, newest first. Without a selection every run in the
configured namespace is listed; selections always query the global namespace.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if flow == "" {
				flow = a.cfg.Film.Flow
			}
			selection := sel.selection()
			if err := selection.Validate(); err != nil {
				return err
			}
			store, err := a.flowStore(cmd.Context())
			if err != nil {
				return err
			}

			var found []domain.Run
			if selection.Empty() {
				found, err = store.ListRuns(cmd.Context(), repo.RunFilter{
					Flow:      flow,
					Namespace: a.cfg.Namespace,
					Limit:     limit,
				})
			} else {
				found, err = runs.New(store).Runs(cmd.Context(), flow, selection, limit)
			}
			if err != nil {
				return err
			}
			return writeRuns(cmd.OutOrStdout(), found, format)
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVar(&flow, "flow", "", "flow name (default: the configured video flow)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format (table|json|yaml)")
	return cmd
}

// NewPromptsCommand prints prompt records of successful image runs.
func NewPromptsCommand() *cobra.Command {
	var (
		maxRuns int
		format  string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "List prompt records of successful image generation runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			store, err := a.flowStore(cmd.Context())
			if err != nil {
				return err
			}
			selector, err := prompts.NewSelector(store, a.cfg.Prompts, a.logger)
			if err != nil {
				return err
			}
			records, err := selector.SuccessfulRunPrompts(cmd.Context(), maxRuns)
			if err != nil {
				return err
			}
			if out == "" {
				return writeRecords(cmd.OutOrStdout(), records, format)
			}
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := writeRecords(file, records, format); err != nil {
				_ = file.Close()
				return err
			}
			return file.Close()
		},
	}
	cmd.Flags().IntVar(&maxRuns, "max-runs", 0, "newest runs to examine (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format (table|json|yaml)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write records to a file instead of stdout")
	return cmd
}

// NewGridCommand renders an image grid to a PNG file.
func NewGridCommand() *cobra.Command {
	var (
		prompt, style, match string
		rows, cols           int
		width, height        int
		random               bool
		maxRuns              int
		recordsFile          string
		out                  string
	)
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Render generated images into a captioned grid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !grid.Available() {
				return grid.ErrRenderingUnavailable
			}
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			opts, err := a.cfg.Grid.Options()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("match") {
				mode, ok := grid.ParseMatchMode(match)
				if !ok {
					return fmt.Errorf("--match must be all or any, got %q", match)
				}
				opts.Match = mode
			}
			if flags.Changed("rows") {
				opts.Rows = rows
			}
			if flags.Changed("cols") {
				opts.Cols = cols
			}
			if flags.Changed("width") {
				opts.Width = width
			}
			if flags.Changed("height") {
				opts.Height = height
			}
			opts.Prompt, opts.Style, opts.Random = prompt, style, random

			client, err := a.flowClient(cmd.Context())
			if err != nil {
				return err
			}
			var records []domain.PromptRecord
			if recordsFile != "" {
				records, err = readRecords(recordsFile)
			} else {
				var selector *prompts.Selector
				selector, err = prompts.NewSelector(client, a.cfg.Prompts, a.logger)
				if err == nil {
					records, err = selector.SuccessfulRunPrompts(cmd.Context(), maxRuns)
				}
			}
			if err != nil {
				return err
			}

			renderer, err := grid.NewRenderer(client, a.logger)
			if err != nil {
				return err
			}
			img, err := renderer.Render(cmd.Context(), records, opts)
			if err != nil {
				return err
			}
			if img == nil {
				return nil
			}
			if out == "" {
				out = fmt.Sprintf("grid-%s.png", uuid.NewString())
			}
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := png.Encode(file, img); err != nil {
				_ = file.Close()
				return fmt.Errorf("encode %s: %w", out, err)
			}
			if err := file.Close(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&prompt, "prompt", "", "keep images whose prompt contains this text")
	f.StringVar(&style, "style", "", "keep images whose style contains this text")
	f.StringVar(&match, "match", "all", "combine filters with all or any")
	f.IntVar(&rows, "rows", grid.DefaultRows, "grid rows")
	f.IntVar(&cols, "cols", grid.DefaultCols, "grid columns")
	f.IntVar(&width, "width", grid.DefaultWidth, "cell width in pixels")
	f.IntVar(&height, "height", grid.DefaultHeight, "cell height in pixels")
	f.BoolVar(&random, "random", false, "pick cells at random")
	f.IntVar(&maxRuns, "max-runs", 0, "newest runs to examine (0 for all)")
	f.StringVar(&recordsFile, "records", "", "read prompt records from a json or yaml file")
	f.StringVarP(&out, "out", "o", "", "output PNG (default: grid-<uuid>.png)")
	return cmd
}

// NewExportCommand downloads rendered clips of selected runs.
func NewExportCommand() *cobra.Command {
	var (
		sel        selectionFlags
		maxRuns    int
		saveFolder string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download rendered clips of selected video runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			selection := sel.selection()
			if err := selection.Validate(); err != nil {
				return err
			}
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			exporter, err := a.exporter(cmd.Context())
			if err != nil {
				return err
			}
			exported, err := exporter.Export(cmd.Context(), film.ExportOptions{
				Selection:  selection,
				MaxRuns:    maxRuns,
				SaveFolder: saveFolder,
			})
			if err != nil {
				return err
			}
			writeExported(cmd.OutOrStdout(), exported)
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().IntVar(&maxRuns, "max-runs", 0, "runs to examine (0 for all)")
	cmd.Flags().StringVar(&saveFolder, "save-folder", "", "download folder (default: ./final_render)")
	return cmd
}

// NewMovieCommand exports selected runs and stitches their clips.
func NewMovieCommand() *cobra.Command {
	var (
		sel        selectionFlags
		maxRuns    int
		saveFolder string
		maxVideos  int
		allVideos  bool
		fps        int
		output     string
	)
	cmd := &cobra.Command{
		Use:   "movie",
		Short: "Stitch rendered clips of selected runs into one film",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := film.MovieOptions{
				ExportOptions: film.ExportOptions{
					Selection:  sel.selection(),
					MaxRuns:    maxRuns,
					SaveFolder: saveFolder,
				},
				FPS:        fps,
				OutputPath: output,
			}
			if !allVideos {
				if maxVideos < 1 {
					return fmt.Errorf("%w, got %d", film.ErrInvalidVideoCount, maxVideos)
				}
				opts.MaxVideos = &maxVideos
			}
			if err := opts.Selection.Validate(); err != nil {
				return err
			}
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			assembler, err := a.assembler(cmd.Context())
			if err != nil {
				return err
			}
			path, err := assembler.MakeMovie(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	sel.register(cmd)
	f := cmd.Flags()
	f.IntVar(&maxRuns, "max-runs", 0, "runs to examine (0 for all)")
	f.StringVar(&saveFolder, "save-folder", "", "download folder (default: ./final_render)")
	f.IntVar(&maxVideos, "max-videos", 20, "clips sampled into the film")
	f.BoolVar(&allVideos, "all-videos", false, "use every clip instead of sampling")
	f.IntVar(&fps, "fps", 0, "film frame rate (default: film.fps)")
	f.StringVarP(&output, "output", "o", "", "film path (default: ./final_video.mp4)")
	return cmd
}

// NewSampleCommand turns images into videos with the sampler.
func NewSampleCommand() *cobra.Command {
	var (
		modelVersion string
		seed         int64
		outDir       string
		numFrames    int
		numSteps     int
		lowVRAM      bool
	)
	cmd := &cobra.Command{
		Use:   "sample IMAGE...",
		Short: "Generate a video from each image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			gen := a.cfg.Generation
			if cmd.Flags().Changed("num-frames") {
				gen.NumFrames = numFrames
			}
			if cmd.Flags().Changed("num-steps") {
				gen.NumSteps = numSteps
			}
			if cmd.Flags().Changed("low-vram") {
				gen.LowVRAMMode = lowVRAM
			}
			s, err := a.sampler()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", outDir, err)
			}
			for sample, err := range s.Generate(cmd.Context(), modelVersion, args, gen, seed) {
				if err != nil {
					return err
				}
				name := strings.TrimSuffix(filepath.Base(sample.ImagePath), filepath.Ext(sample.ImagePath)) + ".mp4"
				target := filepath.Join(outDir, name)
				if err := os.WriteFile(target, sample.Video, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", target, err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), target)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&modelVersion, "model-version", "", "sampler model version (default: sampler.model_version)")
	f.Int64Var(&seed, "seed", 23, "sampling seed")
	f.StringVarP(&outDir, "out-dir", "o", "videos", "directory for generated videos")
	f.IntVar(&numFrames, "num-frames", 0, "frames per video")
	f.IntVar(&numSteps, "num-steps", 0, "diffusion steps")
	f.BoolVar(&lowVRAM, "low-vram", false, "enable low VRAM mode")
	return cmd
}

// NewFetchModelCommand downloads the image-to-video weights.
func NewFetchModelCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "fetch-model",
		Short: "Download the image-to-video model weights",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			s, err := a.sampler()
			if err != nil {
				return err
			}
			path, err := s.DownloadModel(cmd.Context(), dir)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "target directory (default: sampler.model_dir)")
	return cmd
}

// NewMigrateCommand provisions the run metadata schema.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply run metadata schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			db, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			if err := repopostgres.Migrate(db); err != nil {
				return err
			}
			version, err := repopostgres.MigrationVersion(db)
			if err != nil {
				return err
			}
			a.logger.Info("schema migrated", "version", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}
