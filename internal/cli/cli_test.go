package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/service/film"
	"github.com/animus-labs/flowreel/internal/service/runs"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(prev) })

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err = runCommand(context.Background(), cmd)
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "flowreel v"+Version)
}

func TestMovieRejectsZeroVideos(t *testing.T) {
	_, err := runRoot(t, "movie", "--tag", "reel", "--max-videos", "0")
	require.ErrorIs(t, err, film.ErrInvalidVideoCount)
}

func TestExportRejectsIncompleteBranch(t *testing.T) {
	_, err := runRoot(t, "export", "--branch", "main")
	require.ErrorIs(t, err, runs.ErrIncompleteBranch)
}

func TestRunsRejectsUnknownFormat(t *testing.T) {
	_, err := runRoot(t, "runs", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestDatabaseClosedWhenCommandFails(t *testing.T) {
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(prev) })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	var opened *app
	failure := errors.New("query failed")
	cmd := NewRootCmd()
	cmd.AddCommand(&cobra.Command{
		Use: "failing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			a.db = db
			opened = a
			return failure
		},
	})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"failing"})

	err = runCommand(context.Background(), cmd)
	require.ErrorIs(t, err, failure)
	require.NotNil(t, opened)
	assert.Nil(t, opened.db)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubcommandsRegistered(t *testing.T) {
	cmd := NewRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"runs", "prompts", "grid", "export", "movie", "sample", "fetch-model", "migrate", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestWriteRecordsTable(t *testing.T) {
	var buf bytes.Buffer
	records := []domain.PromptRecord{{Prompt: "a red fox", Style: "oil", ImageRef: "img_0", TaskPathspec: "F/7/generate_images/1", RunID: "7", Seed: 42}}
	require.NoError(t, writeRecords(&buf, records, formatTable))
	out := buf.String()
	assert.Contains(t, out, "a red fox")
	assert.Contains(t, out, "F/7/generate_images/1")

	buf.Reset()
	require.NoError(t, writeRecords(&buf, nil, formatTable))
	assert.Contains(t, buf.String(), "(0 records)")
}

func TestReadRecordsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.yaml")
	body := `- prompt: a red fox
  style: oil
  img_val: img_0
  task_pathspec: F/7/generate_images/1
  run_id: "7"
  seed: 42
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	records, err := readRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "img_0", records[0].ImageRef)
	assert.Equal(t, int64(42), records[0].Seed)
}
