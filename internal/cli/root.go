// Package cli provides the flowreel command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/animus-labs/flowreel/internal/config"
	"github.com/animus-labs/flowreel/internal/platform/invocation"
	"github.com/animus-labs/flowreel/internal/platform/logging"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type appKey struct{}

// appSlot receives the app opened by PersistentPreRunE so the caller of
// runCommand can close it even when RunE fails.
type appSlot struct {
	app *app
}

type appSlotKey struct{}

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	var cfgFile, envFile string

	rootCmd := &cobra.Command{
		Use:   "flowreel",
		Short: "Inspect generation runs and assemble films from their clips",
		Long: `flowreel queries recorded text-to-image and text-to-video runs, renders
image grids from their outputs, stitches rendered clips into a film, and
drives an image-to-video sampler.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "__complete" {
				return nil
			}
			if err := loadDotEnv(envFile); err != nil {
				return err
			}
			cfg, used, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log)
			if err != nil {
				return err
			}
			logger, _ = invocation.Logger(logger, cmd.Name())
			if used != "" {
				logger.Debug("config file loaded", "path", used)
			}
			a := &app{cfg: cfg, logger: logger}
			if slot, ok := cmd.Context().Value(appSlotKey{}).(*appSlot); ok {
				slot.app = a
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./flowreel.yaml)")
	pf.StringVar(&envFile, "env-file", "", "dotenv file to load (default: ./.env when present)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (json|text)")
	pf.String("database-url", "", "run metadata database URL")
	pf.String("s3-endpoint", "", "object store endpoint (host:port)")
	pf.String("s3-access-key", "", "object store access key")
	pf.String("s3-secret-key", "", "object store secret key")
	pf.Bool("s3-use-ssl", false, "use TLS for the object store")
	pf.String("bucket-artifacts", "", "bucket holding task data artifacts")
	pf.String("bucket-models", "", "bucket holding model store artifact sets")
	pf.String("model-store-prefix", "", "key prefix of the model store")
	pf.String("namespace", "", "namespace for interactive run listings")
	pf.Bool("ffmpeg-verbose", false, "stream ffmpeg output to stderr")
	pf.String("hf-token", "", "Hugging Face token for model downloads")

	rootCmd.AddCommand(
		NewVersionCommand(),
		NewRunsCommand(),
		NewPromptsCommand(),
		NewGridCommand(),
		NewExportCommand(),
		NewMovieCommand(),
		NewSampleCommand(),
		NewFetchModelCommand(),
		NewMigrateCommand(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	if err := runCommand(ctx, NewRootCmd()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// runCommand executes cmd and closes the app of the invoked subcommand on
// every path. Cobra skips post-run hooks when RunE fails.
func runCommand(ctx context.Context, cmd *cobra.Command) error {
	slot := &appSlot{}
	err := cmd.ExecuteContext(context.WithValue(ctx, appSlotKey{}, slot))
	if slot.app != nil {
		if cerr := slot.app.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close: %w", cerr))
		}
	}
	return err
}

func loadDotEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok || a == nil {
		return nil, errors.New("configuration not loaded")
	}
	return a, nil
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "flowreel v%s (%s)\n", Version, GitCommit)
		},
	}
}
