package repo

import (
	"context"

	"github.com/animus-labs/flowreel/internal/domain"
)

// GlobalNamespace disables namespace scoping on run queries.
const GlobalNamespace = ""

type RunFilter struct {
	Flow string
	// Tags must all be present on a run.
	Tags []string
	// Namespace restricts runs to those carrying the namespace tag. Use
	// GlobalNamespace to see every run of the flow.
	Namespace string
	// Limit caps the number of runs returned; zero means no cap.
	Limit int
}

// ArtifactRef locates a task data artifact in object storage.
type ArtifactRef struct {
	TaskPathspec string
	Name         string
	Bucket       string
	ObjectKey    string
	ContentType  string
}

// RunReader lists and fetches runs in the store's default order (newest first).
type RunReader interface {
	ListRuns(ctx context.Context, filter RunFilter) ([]domain.Run, error)
	GetRun(ctx context.Context, flow, runID string) (domain.Run, error)
}

// StepReader resolves steps and their tasks.
type StepReader interface {
	GetStep(ctx context.Context, pathspec string) (domain.Step, error)
	ListTasks(ctx context.Context, stepPathspec string) ([]domain.Task, error)
}

// ArtifactLocator finds where a named task artifact is stored.
type ArtifactLocator interface {
	LocateArtifact(ctx context.Context, taskPathspec, name string) (ArtifactRef, error)
}

// FlowReader is the read-only query surface over workflow metadata.
type FlowReader interface {
	RunReader
	StepReader
	ArtifactLocator
}
