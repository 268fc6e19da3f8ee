package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/repo"
)

type Service struct {
	runs repo.RunReader
}

func New(runReader repo.RunReader) *Service {
	if runReader == nil {
		return nil
	}
	return &Service{runs: runReader}
}

func (s *Service) ByID(ctx context.Context, flow, runID string) (domain.Run, error) {
	if s == nil || s.runs == nil {
		return domain.Run{}, errors.New("run service not initialized")
	}
	run, err := s.runs.GetRun(ctx, flow, runID)
	if err != nil {
		return domain.Run{}, fmt.Errorf("run %s/%s: %w", flow, runID, err)
	}
	return run, nil
}

func (s *Service) ByTags(ctx context.Context, flow string, tags []string, limit int) ([]domain.Run, error) {
	if s == nil || s.runs == nil {
		return nil, errors.New("run service not initialized")
	}
	return s.runs.ListRuns(ctx, repo.RunFilter{
		Flow:      flow,
		Tags:      tags,
		Namespace: repo.GlobalNamespace,
		Limit:     limit,
	})
}

func (s *Service) ByBranch(ctx context.Context, flow, project, branch string, limit int) ([]domain.Run, error) {
	if strings.TrimSpace(project) == "" || strings.TrimSpace(branch) == "" {
		return nil, ErrIncompleteBranch
	}
	return s.ByTags(ctx, flow, BranchTags(project, branch), limit)
}

// All lists every run of the flow, newest first.
func (s *Service) All(ctx context.Context, flow string, limit int) ([]domain.Run, error) {
	return s.ByTags(ctx, flow, nil, limit)
}

// Runs dispatches on the selection. limit caps the runs returned by list
// queries; zero means no cap.
func (s *Service) Runs(ctx context.Context, flow string, sel Selection, limit int) ([]domain.Run, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if err := sel.Exclusive(); err != nil {
		return nil, err
	}
	switch {
	case strings.TrimSpace(sel.RunID) != "":
		run, err := s.ByID(ctx, flow, strings.TrimSpace(sel.RunID))
		if err != nil {
			return nil, err
		}
		return []domain.Run{run}, nil
	case len(sel.normalizedTags()) > 0:
		return s.ByTags(ctx, flow, sel.normalizedTags(), limit)
	case strings.TrimSpace(sel.Project) != "":
		return s.ByBranch(ctx, flow, sel.Project, sel.Branch, limit)
	default:
		return []domain.Run{}, nil
	}
}
