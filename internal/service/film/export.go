package film

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/service/runs"
)

// RunSource resolves a run selection to runs, newest first.
type RunSource interface {
	Runs(ctx context.Context, flow string, sel runs.Selection, limit int) ([]domain.Run, error)
}

// TaskLister lists the tasks of a step.
type TaskLister interface {
	ListTasks(ctx context.Context, stepPathspec string) ([]domain.Task, error)
}

// Downloader fetches a task's named artifact set into a local folder.
type Downloader interface {
	Download(ctx context.Context, taskPathspec, name, dest string) ([]string, error)
}

type ExportOptions struct {
	Selection runs.Selection
	// MaxRuns caps the runs examined, successful or not. Zero means no cap.
	MaxRuns int
	// SaveFolder defaults to final_render under the working directory.
	SaveFolder string
}

type Exporter struct {
	runs   RunSource
	tasks  TaskLister
	store  Downloader
	cfg    Config
	logger *slog.Logger
}

func NewExporter(runSource RunSource, tasks TaskLister, store Downloader, cfg Config, logger *slog.Logger) (*Exporter, error) {
	if runSource == nil {
		return nil, errors.New("run source is required")
	}
	if tasks == nil {
		return nil, errors.New("task lister is required")
	}
	if store == nil {
		return nil, errors.New("model store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{runs: runSource, tasks: tasks, store: store, cfg: cfg, logger: logger}, nil
}

// Export downloads the rendered artifact set of every successful selected run.
// Download failures stop the export; partially written folders are left in place.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) ([]domain.ExportedRun, error) {
	if e == nil || e.runs == nil {
		return nil, errors.New("exporter not initialized")
	}
	if err := opts.Selection.Validate(); err != nil {
		return nil, err
	}
	saveFolder := strings.TrimSpace(opts.SaveFolder)
	if saveFolder == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		saveFolder = filepath.Join(cwd, DefaultSaveDir)
		e.logger.Warn("no save folder specified, using default", "path", saveFolder)
	}
	maxRuns := max(opts.MaxRuns, 0)

	selected, err := e.runs.Runs(ctx, e.cfg.Flow, opts.Selection, maxRuns)
	if err != nil {
		return nil, fmt.Errorf("select %s runs: %w", e.cfg.Flow, err)
	}

	exported := make([]domain.ExportedRun, 0, len(selected))
	for idx, run := range selected {
		if maxRuns > 0 && idx >= maxRuns {
			break
		}
		if !run.Successful {
			e.logger.Debug("skipping unsuccessful run", "run_id", run.ID)
			continue
		}
		taskPath, err := e.videoTask(ctx, run)
		if err != nil {
			return nil, err
		}
		dest := filepath.Join(saveFolder, run.ID)
		files, err := e.store.Download(ctx, taskPath, e.cfg.ArtifactSet, dest)
		if err != nil {
			return nil, fmt.Errorf("export run %s: %w", run.ID, err)
		}
		e.logger.Info("run exported", "run_id", run.ID, "files", len(files), "path", dest)
		exported = append(exported, domain.ExportedRun{Run: run, Path: dest})
	}
	return exported, nil
}

func (e *Exporter) videoTask(ctx context.Context, run domain.Run) (string, error) {
	stepPath := domain.JoinPathspec(run.Flow, run.ID, e.cfg.Step)
	tasks, err := e.tasks.ListTasks(ctx, stepPath)
	if err != nil {
		return "", fmt.Errorf("tasks of %s: %w", stepPath, err)
	}
	if len(tasks) == 0 {
		return "", fmt.Errorf("%s: %w", stepPath, ErrNoVideoTask)
	}
	return tasks[0].Pathspec(), nil
}
