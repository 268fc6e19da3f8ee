package prompts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/repo"
)

type fakeReader struct {
	runs      []domain.Run
	steps     map[string]domain.Step
	tasks     map[string][]domain.Task
	filters   []repo.RunFilter
	taskReads map[string]int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		steps:     map[string]domain.Step{},
		tasks:     map[string][]domain.Task{},
		taskReads: map[string]int{},
	}
}

func (f *fakeReader) ListRuns(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	f.filters = append(f.filters, filter)
	out := append([]domain.Run(nil), f.runs...)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeReader) GetRun(ctx context.Context, flow, runID string) (domain.Run, error) {
	return domain.Run{}, repo.ErrNotFound
}

func (f *fakeReader) GetStep(ctx context.Context, pathspec string) (domain.Step, error) {
	step, ok := f.steps[pathspec]
	if !ok {
		return domain.Step{}, repo.ErrNotFound
	}
	return step, nil
}

func (f *fakeReader) ListTasks(ctx context.Context, stepPathspec string) ([]domain.Task, error) {
	f.taskReads[stepPathspec]++
	return f.tasks[stepPathspec], nil
}

func (f *fakeReader) addRun(id string, successful bool, origin string) {
	f.runs = append(f.runs, domain.Run{Flow: DefaultFlow, ID: id, Successful: successful})
	step := domain.Step{Flow: DefaultFlow, RunID: id, Name: DefaultStep, OriginPathspec: origin}
	f.steps[step.Pathspec()] = step
}

func (f *fakeReader) addTasks(runID string, seeds []int64, triplesPerTask int) {
	stepPath := domain.JoinPathspec(DefaultFlow, runID, DefaultStep)
	for i, seed := range seeds {
		index := make([]any, 0, triplesPerTask)
		for j := 0; j < triplesPerTask; j++ {
			index = append(index, []any{
				fmt.Sprintf("prompt %s-%d-%d", runID, i, j),
				"style",
				fmt.Sprintf("img_%d", j),
			})
		}
		f.tasks[stepPath] = append(f.tasks[stepPath], domain.Task{
			Flow:  DefaultFlow,
			RunID: runID,
			Step:  DefaultStep,
			ID:    fmt.Sprint(i + 1),
			Data:  domain.Metadata{"seed": float64(seed), "image_index": index},
		})
	}
}

func newSelector(t *testing.T, reader Reader) *Selector {
	t.Helper()
	sel, err := NewSelector(reader, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	return sel
}

func TestSuccessfulRunPromptsSkipsFailedRuns(t *testing.T) {
	reader := newFakeReader()
	reader.addRun("3", true, "None")
	reader.addRun("2", false, "None")
	reader.addTasks("3", []int64{7}, 2)
	reader.addTasks("2", []int64{8}, 2)

	records, err := newSelector(t, reader).SuccessfulRunPrompts(context.Background(), 0)
	if err != nil {
		t.Fatalf("SuccessfulRunPrompts: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.RunID != "3" {
			t.Fatalf("record from unsuccessful run: %+v", rec)
		}
	}
	if reader.taskReads[domain.JoinPathspec(DefaultFlow, "2", DefaultStep)] != 0 {
		t.Fatalf("unsuccessful run step was read")
	}
}

func TestSuccessfulRunPromptsReadsSharedStepOnce(t *testing.T) {
	reader := newFakeReader()
	shared := domain.JoinPathspec(DefaultFlow, "1", DefaultStep)
	reader.addRun("4", true, shared)
	reader.addRun("3", true, shared)
	reader.addRun("2", true, "")
	reader.addRun("1", true, "None")
	reader.addTasks("1", []int64{11, 12}, 3)
	reader.addTasks("2", []int64{21}, 3)

	records, err := newSelector(t, reader).SuccessfulRunPrompts(context.Background(), 0)
	if err != nil {
		t.Fatalf("SuccessfulRunPrompts: %v", err)
	}
	if reader.taskReads[shared] != 1 {
		t.Fatalf("expected shared step read once, got %d", reader.taskReads[shared])
	}
	// step 1: 2 tasks x 3 triples, step 2: 1 task x 3 triples
	if len(records) != 9 {
		t.Fatalf("expected 9 records, got %d", len(records))
	}
	// shared step was first seen through run 4, so it is emitted first
	if records[0].RunID != "1" || records[len(records)-1].RunID != "2" {
		t.Fatalf("unexpected record order: first=%q last=%q", records[0].RunID, records[len(records)-1].RunID)
	}
}

func TestSuccessfulRunPromptsSeedFromFirstTask(t *testing.T) {
	reader := newFakeReader()
	reader.addRun("5", true, "None")
	reader.addTasks("5", []int64{101, 202}, 1)

	records, err := newSelector(t, reader).SuccessfulRunPrompts(context.Background(), 0)
	if err != nil {
		t.Fatalf("SuccessfulRunPrompts: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Seed != 101 {
			t.Fatalf("expected seed 101, got %d", rec.Seed)
		}
		if !strings.HasPrefix(rec.TaskPathspec, DefaultFlow+"/5/"+DefaultStep+"/") {
			t.Fatalf("unexpected task pathspec %q", rec.TaskPathspec)
		}
	}
	if records[0].ImageRef != "img_0" || records[0].Style != "style" {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestSuccessfulRunPromptsCapsRunsExamined(t *testing.T) {
	reader := newFakeReader()
	reader.addRun("3", false, "None")
	reader.addRun("2", true, "None")
	reader.addTasks("2", []int64{1}, 1)

	records, err := newSelector(t, reader).SuccessfulRunPrompts(context.Background(), 1)
	if err != nil {
		t.Fatalf("SuccessfulRunPrompts: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("cap must apply to runs examined, got %d records", len(records))
	}
	if reader.filters[0].Limit != 1 || reader.filters[0].Namespace != repo.GlobalNamespace {
		t.Fatalf("unexpected filter %+v", reader.filters[0])
	}
}

func TestSuccessfulRunPromptsMalformedData(t *testing.T) {
	reader := newFakeReader()
	reader.addRun("6", true, "None")
	stepPath := domain.JoinPathspec(DefaultFlow, "6", DefaultStep)
	reader.tasks[stepPath] = []domain.Task{{
		Flow: DefaultFlow, RunID: "6", Step: DefaultStep, ID: "1",
		Data: domain.Metadata{"seed": float64(3), "image_index": []any{[]any{"only", "two"}}},
	}}

	_, err := newSelector(t, reader).SuccessfulRunPrompts(context.Background(), 0)
	if !errors.Is(err, ErrMalformedTaskData) {
		t.Fatalf("expected ErrMalformedTaskData, got %v", err)
	}
	if !strings.Contains(err.Error(), stepPath+"/1") {
		t.Fatalf("error should name the task: %v", err)
	}

	reader.tasks[stepPath][0].Data = domain.Metadata{"image_index": []any{}}
	if _, err := newSelector(t, reader).SuccessfulRunPrompts(context.Background(), 0); !errors.Is(err, ErrMalformedTaskData) {
		t.Fatalf("expected missing seed error, got %v", err)
	}
}

func TestParseImageIndex(t *testing.T) {
	got, err := ParseImageIndex([]any{[]any{"p", "s", "img"}})
	if err != nil {
		t.Fatalf("ParseImageIndex: %v", err)
	}
	if len(got) != 1 || got[0] != [3]string{"p", "s", "img"} {
		t.Fatalf("unexpected triples %v", got)
	}
	if got, err := ParseImageIndex(nil); err != nil || len(got) != 0 {
		t.Fatalf("nil index: %v %v", got, err)
	}
	if _, err := ParseImageIndex("nope"); err == nil {
		t.Fatalf("expected error for non-list index")
	}
	if _, err := ParseImageIndex([]any{[]any{"p", 1, "img"}}); err == nil {
		t.Fatalf("expected error for non-string field")
	}
}
