package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/repo"
	"github.com/animus-labs/flowreel/internal/storage/objectstore"
)

type fakeReader struct {
	refs map[string]repo.ArtifactRef
}

func (f *fakeReader) ListRuns(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	return nil, nil
}

func (f *fakeReader) GetRun(ctx context.Context, flow, runID string) (domain.Run, error) {
	return domain.Run{}, repo.ErrNotFound
}

func (f *fakeReader) GetStep(ctx context.Context, pathspec string) (domain.Step, error) {
	return domain.Step{}, repo.ErrNotFound
}

func (f *fakeReader) ListTasks(ctx context.Context, stepPathspec string) ([]domain.Task, error) {
	return nil, nil
}

func (f *fakeReader) LocateArtifact(ctx context.Context, taskPathspec, name string) (repo.ArtifactRef, error) {
	ref, ok := f.refs[taskPathspec+"|"+name]
	if !ok {
		return repo.ArtifactRef{}, repo.ErrNotFound
	}
	return ref, nil
}

func TestTaskDataReadsArtifact(t *testing.T) {
	objects := objectstore.NewMemoryStore()
	objects.Put("flow-artifacts", "F/1/generate_images/3/img_0", []byte("png-bytes"), "image/png")
	reader := &fakeReader{refs: map[string]repo.ArtifactRef{
		"F/1/generate_images/3|img_0": {Bucket: "flow-artifacts", ObjectKey: "F/1/generate_images/3/img_0"},
	}}
	client, err := NewClient(reader, objects)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	data, err := client.TaskData(context.Background(), "F/1/generate_images/3", "img_0")
	if err != nil {
		t.Fatalf("TaskData: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected data %q", data)
	}
}

func TestTaskDataMissingArtifact(t *testing.T) {
	client, err := NewClient(&fakeReader{}, objectstore.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.TaskData(context.Background(), "F/1/generate_images/3", "img_9")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewClientRequiresCollaborators(t *testing.T) {
	if _, err := NewClient(nil, objectstore.NewMemoryStore()); err == nil {
		t.Fatalf("expected error without reader")
	}
	if _, err := NewClient(&fakeReader{}, nil); err == nil {
		t.Fatalf("expected error without object store")
	}
}
