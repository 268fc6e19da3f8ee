package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Config{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("run exported", "run_id", "12")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "run exported" || entry["run_id"] != "12" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Config{Level: "warn", Format: "text"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{Level: "loud", Format: "json"}).Validate(); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if err := (Config{Level: "info", Format: "xml"}).Validate(); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
