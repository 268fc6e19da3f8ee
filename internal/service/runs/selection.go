package runs

import (
	"errors"
	"strings"
)

var (
	ErrConflictingSelection = errors.New("only one of run id, tags, branch, project can be specified")
	ErrIncompleteBranch     = errors.New("both branch and project must be specified")
)

type Selection struct {
	RunID   string
	Tags    []string
	Branch  string
	Project string
}

func (s Selection) Validate() error {
	runID := strings.TrimSpace(s.RunID) != ""
	tags := len(s.normalizedTags()) > 0
	branch := strings.TrimSpace(s.Branch) != ""
	project := strings.TrimSpace(s.Project) != ""

	if runID && tags && branch && project {
		return ErrConflictingSelection
	}
	if branch != project {
		return ErrIncompleteBranch
	}
	return nil
}

// Exclusive fails with ErrConflictingSelection when more than one selection
// mode is set. The project/branch pair counts as a single mode.
func (s Selection) Exclusive() error {
	modes := 0
	if strings.TrimSpace(s.RunID) != "" {
		modes++
	}
	if len(s.normalizedTags()) > 0 {
		modes++
	}
	if strings.TrimSpace(s.Branch) != "" || strings.TrimSpace(s.Project) != "" {
		modes++
	}
	if modes > 1 {
		return ErrConflictingSelection
	}
	return nil
}

// Empty reports whether no selection mode is set.
func (s Selection) Empty() bool {
	return strings.TrimSpace(s.RunID) == "" &&
		len(s.normalizedTags()) == 0 &&
		strings.TrimSpace(s.Branch) == "" &&
		strings.TrimSpace(s.Project) == ""
}

// BranchTags returns the tag pair identifying a project branch.
func BranchTags(project, branch string) []string {
	return []string{
		"project:" + strings.TrimSpace(project),
		"project_branch:" + strings.TrimSpace(branch),
	}
}

func (s Selection) normalizedTags() []string {
	out := make([]string, 0, len(s.Tags))
	for _, tag := range s.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
