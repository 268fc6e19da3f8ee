package cli

import (
	"github.com/spf13/cobra"

	"github.com/animus-labs/flowreel/internal/service/runs"
)

type selectionFlags struct {
	runID   string
	tags    []string
	branch  string
	project string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.runID, "run-id", "", "select a single run by id")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "select runs carrying every tag (repeatable)")
	cmd.Flags().StringVar(&f.branch, "branch", "", "select runs of a project branch (requires --project)")
	cmd.Flags().StringVar(&f.project, "project", "", "select runs of a project (requires --branch)")
}

func (f *selectionFlags) selection() runs.Selection {
	return runs.Selection{
		RunID:   f.runID,
		Tags:    f.tags,
		Branch:  f.branch,
		Project: f.project,
	}
}
