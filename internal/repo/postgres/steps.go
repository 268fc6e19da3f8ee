package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/repo"
)

const (
	selectStepQuery = `SELECT flow_name, run_id, step_name, origin_pathspec
	 FROM flow_steps
	 WHERE flow_name = $1 AND run_id = $2 AND step_name = $3`

	listTasksQuery = `SELECT flow_name, run_id, step_name, task_id, data
	 FROM flow_tasks
	 WHERE flow_name = $1 AND run_id = $2 AND step_name = $3
	 ORDER BY created_at ASC, task_id ASC`

	selectArtifactQuery = `SELECT bucket, object_key, content_type
	 FROM task_artifacts
	 WHERE flow_name = $1 AND run_id = $2 AND step_name = $3 AND task_id = $4 AND name = $5`
)

func (s *FlowStore) GetStep(ctx context.Context, pathspec string) (domain.Step, error) {
	if err := s.ready(); err != nil {
		return domain.Step{}, err
	}
	p, err := parseDepth(pathspec, 3, "step")
	if err != nil {
		return domain.Step{}, err
	}
	var step domain.Step
	var origin sql.NullString
	row := s.db.QueryRowContext(ctx, selectStepQuery, p.Flow, p.RunID, p.Step)
	if err := row.Scan(&step.Flow, &step.RunID, &step.Name, &origin); err != nil {
		return domain.Step{}, handleNotFound(err)
	}
	if origin.Valid {
		step.OriginPathspec = strings.TrimSpace(origin.String)
	}
	return step, nil
}

func (s *FlowStore) ListTasks(ctx context.Context, stepPathspec string) ([]domain.Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	p, err := parseDepth(stepPathspec, 3, "step")
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, listTasksQuery, p.Flow, p.RunID, p.Step)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		var task domain.Task
		var dataJSON []byte
		if err := rows.Scan(&task.Flow, &task.RunID, &task.Step, &task.ID, &dataJSON); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		data, err := decodeMetadata(dataJSON)
		if err != nil {
			return nil, fmt.Errorf("decode task %s data: %w", task.Pathspec(), err)
		}
		task.Data = data
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *FlowStore) LocateArtifact(ctx context.Context, taskPathspec, name string) (repo.ArtifactRef, error) {
	if err := s.ready(); err != nil {
		return repo.ArtifactRef{}, err
	}
	p, err := parseDepth(taskPathspec, 4, "task")
	if err != nil {
		return repo.ArtifactRef{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return repo.ArtifactRef{}, fmt.Errorf("artifact name is required")
	}
	ref := repo.ArtifactRef{TaskPathspec: p.String(), Name: name}
	var bucket sql.NullString
	var contentType sql.NullString
	row := s.db.QueryRowContext(ctx, selectArtifactQuery, p.Flow, p.RunID, p.Step, p.Task, name)
	if err := row.Scan(&bucket, &ref.ObjectKey, &contentType); err != nil {
		return repo.ArtifactRef{}, handleNotFound(err)
	}
	ref.Bucket = s.artifactBucket
	if bucket.Valid && strings.TrimSpace(bucket.String) != "" {
		ref.Bucket = strings.TrimSpace(bucket.String)
	}
	if ref.Bucket == "" {
		return repo.ArtifactRef{}, fmt.Errorf("artifact %s/%s has no bucket", ref.TaskPathspec, name)
	}
	ref.ContentType = strings.TrimSpace(contentType.String)
	return ref, nil
}
