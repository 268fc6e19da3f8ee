package domain

import "testing"

func TestRunIDFromPathspec(t *testing.T) {
	got, err := RunIDFromPathspec("FlowName/RUNID/stepname/taskid")
	if err != nil {
		t.Fatalf("RunIDFromPathspec() err=%v", err)
	}
	if got != "RUNID" {
		t.Fatalf("expected RUNID, got %q", got)
	}
	if _, err := RunIDFromPathspec("FlowName"); err == nil {
		t.Fatalf("expected error for pathspec without run segment")
	}
}

func TestParsePathspec(t *testing.T) {
	p, err := ParsePathspec("Flow/12/generate_images/7")
	if err != nil {
		t.Fatalf("ParsePathspec() err=%v", err)
	}
	if p.Flow != "Flow" || p.RunID != "12" || p.Step != "generate_images" || p.Task != "7" {
		t.Fatalf("unexpected pathspec %+v", p)
	}
	if p.Depth() != 4 || p.String() != "Flow/12/generate_images/7" {
		t.Fatalf("unexpected depth/string: %d %q", p.Depth(), p.String())
	}

	step, err := ParsePathspec("Flow/12/generate_images")
	if err != nil {
		t.Fatalf("ParsePathspec(step) err=%v", err)
	}
	if step.Depth() != 3 {
		t.Fatalf("expected depth 3, got %d", step.Depth())
	}

	for _, bad := range []string{"", "Flow//step", "a/b/c/d/e"} {
		if _, err := ParsePathspec(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestStepSourcePathspec(t *testing.T) {
	own := Step{Flow: "F", RunID: "2", Name: "generate_images", OriginPathspec: "None"}
	if own.HasOrigin() {
		t.Fatalf("expected None origin to mean no origin")
	}
	if own.SourcePathspec() != "F/2/generate_images" {
		t.Fatalf("unexpected source %q", own.SourcePathspec())
	}

	empty := Step{Flow: "F", RunID: "3", Name: "generate_images"}
	if empty.SourcePathspec() != "F/3/generate_images" {
		t.Fatalf("unexpected source %q", empty.SourcePathspec())
	}

	shared := Step{Flow: "F", RunID: "4", Name: "generate_images", OriginPathspec: "F/1/generate_images"}
	if !shared.HasOrigin() {
		t.Fatalf("expected origin")
	}
	if shared.SourcePathspec() != "F/1/generate_images" {
		t.Fatalf("unexpected source %q", shared.SourcePathspec())
	}
}

func TestMetadataInt64(t *testing.T) {
	m := Metadata{"seed": float64(42), "bad": 1.5, "str": "x"}
	v, ok, err := m.Int64("seed")
	if err != nil || !ok || v != 42 {
		t.Fatalf("Int64(seed)=%d,%v,%v", v, ok, err)
	}
	if _, _, err := m.Int64("bad"); err == nil {
		t.Fatalf("expected error for fractional value")
	}
	if _, _, err := m.Int64("str"); err == nil {
		t.Fatalf("expected error for string value")
	}
	if _, ok, _ := m.Int64("missing"); ok {
		t.Fatalf("expected missing key to report ok=false")
	}
}

func TestPromptRecordTitle(t *testing.T) {
	cases := map[PromptRecord]string{
		{Prompt: "a cat", Style: "oil painting"}: "a cat, oil painting",
		{Prompt: "a cat"}:                        "a cat",
		{Style: "sketch"}:                        "sketch",
	}
	for rec, want := range cases {
		if got := rec.Title(); got != want {
			t.Fatalf("Title()=%q want %q", got, want)
		}
	}
}
