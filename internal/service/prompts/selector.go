// Package prompts extracts prompt records from the image-generation step of
// successful runs.
package prompts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/repo"
)

const (
	DefaultFlow = "DynamicPromptsToImages"
	DefaultStep = "generate_images"

	seedKey       = "seed"
	imageIndexKey = "image_index"
)

var ErrMalformedTaskData = errors.New("malformed task data")

type Config struct {
	Flow string `koanf:"flow"`
	Step string `koanf:"step"`
}

func DefaultConfig() Config {
	return Config{Flow: DefaultFlow, Step: DefaultStep}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Flow) == "" {
		return errors.New("image flow name is required")
	}
	if strings.TrimSpace(c.Step) == "" {
		return errors.New("image step name is required")
	}
	return nil
}

// Reader is the slice of the metadata store the selector needs.
type Reader interface {
	repo.RunReader
	repo.StepReader
}

type Selector struct {
	reader Reader
	cfg    Config
	logger *slog.Logger
}

func NewSelector(reader Reader, cfg Config, logger *slog.Logger) (*Selector, error) {
	if reader == nil {
		return nil, errors.New("metadata reader is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selector{reader: reader, cfg: cfg, logger: logger}, nil
}

// SuccessfulRunPrompts returns one record per (prompt, style, image) triple
// generated by the successful runs among the newest maxRuns runs of the image
// flow. maxRuns <= 0 examines every run. Steps shared by several runs are
// read once.
func (s *Selector) SuccessfulRunPrompts(ctx context.Context, maxRuns int) ([]domain.PromptRecord, error) {
	if s == nil || s.reader == nil {
		return nil, errors.New("prompt selector not initialized")
	}
	if maxRuns < 0 {
		maxRuns = 0
	}
	runs, err := s.reader.ListRuns(ctx, repo.RunFilter{
		Flow:      s.cfg.Flow,
		Namespace: repo.GlobalNamespace,
		Limit:     maxRuns,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s runs: %w", s.cfg.Flow, err)
	}

	sources, err := s.sourceSteps(ctx, runs)
	if err != nil {
		return nil, err
	}

	records := make([]domain.PromptRecord, 0)
	for _, source := range sources {
		stepRecords, err := s.stepRecords(ctx, source)
		if err != nil {
			return nil, err
		}
		records = append(records, stepRecords...)
	}
	s.logger.Debug("prompt records selected",
		"flow", s.cfg.Flow,
		"runs", len(runs),
		"steps", len(sources),
		"records", len(records),
	)
	return records, nil
}

// sourceSteps resolves the step owning each successful run's images, in
// first-seen order without duplicates.
func (s *Selector) sourceSteps(ctx context.Context, runs []domain.Run) ([]string, error) {
	seen := make(map[string]struct{}, len(runs))
	sources := make([]string, 0, len(runs))
	for _, run := range runs {
		if !run.Successful {
			continue
		}
		stepPath := domain.JoinPathspec(run.Flow, run.ID, s.cfg.Step)
		step, err := s.reader.GetStep(ctx, stepPath)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", stepPath, err)
		}
		source := step.SourcePathspec()
		if _, ok := seen[source]; ok {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	return sources, nil
}

func (s *Selector) stepRecords(ctx context.Context, stepPathspec string) ([]domain.PromptRecord, error) {
	tasks, err := s.reader.ListTasks(ctx, stepPathspec)
	if err != nil {
		return nil, fmt.Errorf("tasks of %s: %w", stepPathspec, err)
	}

	var (
		seed    int64
		hasSeed bool
		records []domain.PromptRecord
	)
	for _, task := range tasks {
		taskPath := task.Pathspec()
		if !hasSeed {
			v, ok, err := task.Data.Int64(seedKey)
			if err != nil {
				return nil, fmt.Errorf("%s: %w: %v", taskPath, ErrMalformedTaskData, err)
			}
			if !ok {
				return nil, fmt.Errorf("%s: %w: seed missing", taskPath, ErrMalformedTaskData)
			}
			seed, hasSeed = v, true
		}
		triples, err := ParseImageIndex(task.Data[imageIndexKey])
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", taskPath, ErrMalformedTaskData, err)
		}
		runID, err := domain.RunIDFromPathspec(taskPath)
		if err != nil {
			return nil, err
		}
		for _, triple := range triples {
			records = append(records, domain.PromptRecord{
				Prompt:       triple[0],
				Style:        triple[1],
				ImageRef:     triple[2],
				TaskPathspec: taskPath,
				RunID:        runID,
				Seed:         seed,
			})
		}
	}
	return records, nil
}

// ParseImageIndex decodes an image index: a list of [prompt, style, image]
// string triples. A missing index is empty.
func ParseImageIndex(raw any) ([][3]string, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list, got %T", imageIndexKey, raw)
	}
	out := make([][3]string, 0, len(entries))
	for i, entry := range entries {
		fields, ok := entry.([]any)
		if !ok || len(fields) != 3 {
			return nil, fmt.Errorf("%s[%d]: expected a [prompt, style, image] triple", imageIndexKey, i)
		}
		var triple [3]string
		for j, field := range fields {
			str, ok := field.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d][%d]: expected a string, got %T", imageIndexKey, i, j, field)
			}
			triple[j] = str
		}
		out = append(out, triple)
	}
	return out, nil
}
