package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/repo"
)

const (
	listRunsQuery = `SELECT flow_name, run_id, successful, finished, tags, created_at
	 FROM flow_runs
	 WHERE flow_name = $1 AND tags @> $2::jsonb
	 ORDER BY created_at DESC, run_id DESC
	 LIMIT NULLIF($3::int, 0)`

	selectRunQuery = `SELECT flow_name, run_id, successful, finished, tags, created_at
	 FROM flow_runs
	 WHERE flow_name = $1 AND run_id = $2`
)

func (s *FlowStore) ListRuns(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	flow := strings.TrimSpace(filter.Flow)
	if flow == "" {
		return nil, fmt.Errorf("flow name is required")
	}
	if filter.Limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0")
	}
	required := append([]string{}, filter.Tags...)
	if ns := strings.TrimSpace(filter.Namespace); ns != repo.GlobalNamespace {
		required = append(required, ns)
	}
	tagsJSON, err := encodeTags(required)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, listRunsQuery, flow, tagsJSON, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *FlowStore) GetRun(ctx context.Context, flow, runID string) (domain.Run, error) {
	if err := s.ready(); err != nil {
		return domain.Run{}, err
	}
	flow = strings.TrimSpace(flow)
	runID = strings.TrimSpace(runID)
	if flow == "" {
		return domain.Run{}, fmt.Errorf("flow name is required")
	}
	if runID == "" {
		return domain.Run{}, fmt.Errorf("run id is required")
	}
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRunQuery, flow, runID))
	if err != nil {
		return domain.Run{}, err
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (domain.Run, error) {
	var run domain.Run
	var tagsJSON []byte
	if err := scanner.Scan(
		&run.Flow,
		&run.ID,
		&run.Successful,
		&run.Finished,
		&tagsJSON,
		&run.CreatedAt,
	); err != nil {
		return domain.Run{}, handleNotFound(err)
	}
	tags, err := decodeTags(tagsJSON)
	if err != nil {
		return domain.Run{}, fmt.Errorf("decode tags: %w", err)
	}
	run.Tags = tags
	run.CreatedAt = run.CreatedAt.UTC()
	if err := run.Validate(); err != nil {
		return domain.Run{}, fmt.Errorf("invalid run row: %w", err)
	}
	return run, nil
}
