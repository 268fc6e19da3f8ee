package domain

import (
	"errors"
	"strings"
	"time"
)

// Run is one recorded execution of a named flow. Runs are created by the
// workflow engine and are read-only here.
type Run struct {
	Flow       string
	ID         string
	Successful bool
	Finished   bool
	Tags       []string
	CreatedAt  time.Time
}

func (r Run) Pathspec() string {
	return JoinPathspec(r.Flow, r.ID)
}

func (r Run) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r Run) Validate() error {
	if strings.TrimSpace(r.Flow) == "" {
		return errors.New("flow name is required")
	}
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("run id is required")
	}
	return nil
}

// Step is a named stage of a run. A step whose outputs were produced by an
// earlier, shared execution carries that execution's pathspec as its origin.
type Step struct {
	Flow           string
	RunID          string
	Name           string
	OriginPathspec string
}

func (s Step) Pathspec() string {
	return JoinPathspec(s.Flow, s.RunID, s.Name)
}

// HasOrigin reports whether the step's outputs come from another execution.
// An empty origin or one carrying the "None" marker means the step is its own
// source.
func (s Step) HasOrigin() bool {
	origin := strings.TrimSpace(s.OriginPathspec)
	if origin == "" {
		return false
	}
	return !strings.Contains(origin, originNoneMarker)
}

// SourcePathspec returns the pathspec of the step that owns the outputs.
func (s Step) SourcePathspec() string {
	if s.HasOrigin() {
		return strings.TrimSpace(s.OriginPathspec)
	}
	return s.Pathspec()
}

const originNoneMarker = "None"

// Task is one unit of work inside a step.
type Task struct {
	Flow  string
	RunID string
	Step  string
	ID    string
	Data  Metadata
}

func (t Task) Pathspec() string {
	return JoinPathspec(t.Flow, t.RunID, t.Step, t.ID)
}

// ExportedRun pairs a run with the local folder its artifacts were downloaded to.
type ExportedRun struct {
	Run  Run
	Path string
}
