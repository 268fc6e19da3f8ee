package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/animus-labs/flowreel/internal/domain"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (table|json|yaml)", format)
	}
}

func writeRecords(w io.Writer, records []domain.PromptRecord, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, records)
	case formatYAML:
		return yaml.NewEncoder(w).Encode(records)
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "(0 records)")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Seed", "Prompt", "Style", "Image", "Task"})
	for _, rec := range records {
		t.AppendRow(table.Row{rec.RunID, rec.Seed, rec.Prompt, rec.Style, rec.ImageRef, rec.TaskPathspec})
	}
	t.Render()
	return nil
}

type runView struct {
	Flow       string    `json:"flow" yaml:"flow"`
	ID         string    `json:"id" yaml:"id"`
	Successful bool      `json:"successful" yaml:"successful"`
	Finished   bool      `json:"finished" yaml:"finished"`
	Tags       []string  `json:"tags" yaml:"tags"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

func writeRuns(w io.Writer, runList []domain.Run, format string) error {
	views := make([]runView, 0, len(runList))
	for _, run := range runList {
		views = append(views, runView{
			Flow:       run.Flow,
			ID:         run.ID,
			Successful: run.Successful,
			Finished:   run.Finished,
			Tags:       run.Tags,
			CreatedAt:  run.CreatedAt,
		})
	}
	switch format {
	case formatJSON:
		return writeJSON(w, views)
	case formatYAML:
		return yaml.NewEncoder(w).Encode(views)
	}
	if len(views) == 0 {
		_, _ = fmt.Fprintln(w, "(0 runs)")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Flow", "Successful", "Created", "Tags"})
	for _, v := range views {
		t.AppendRow(table.Row{v.ID, v.Flow, v.Successful, v.CreatedAt.Format(time.RFC3339), strings.Join(v.Tags, ", ")})
	}
	t.Render()
	return nil
}

func writeExported(w io.Writer, exported []domain.ExportedRun) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Path"})
	for _, e := range exported {
		t.AppendRow(table.Row{e.Run.ID, e.Path})
	}
	t.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readRecords loads prompt records saved with --format json or yaml.
func readRecords(path string) ([]domain.PromptRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []domain.PromptRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("decode records %s: %w", path, err)
	}
	return records, nil
}
