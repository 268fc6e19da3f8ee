package domain

import (
	"fmt"
	"strings"
)

// Pathspec addresses a flow object: "Flow", "Flow/Run", "Flow/Run/Step" or
// "Flow/Run/Step/Task".
type Pathspec struct {
	Flow  string
	RunID string
	Step  string
	Task  string
}

func JoinPathspec(parts ...string) string {
	return strings.Join(parts, "/")
}

// ParsePathspec splits a pathspec into its components. Empty segments are rejected.
func ParsePathspec(raw string) (Pathspec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Pathspec{}, fmt.Errorf("pathspec is required")
	}
	parts := strings.Split(raw, "/")
	if len(parts) > 4 {
		return Pathspec{}, fmt.Errorf("pathspec %q has too many segments", raw)
	}
	for _, part := range parts {
		if part == "" {
			return Pathspec{}, fmt.Errorf("pathspec %q has an empty segment", raw)
		}
	}
	var p Pathspec
	p.Flow = parts[0]
	if len(parts) > 1 {
		p.RunID = parts[1]
	}
	if len(parts) > 2 {
		p.Step = parts[2]
	}
	if len(parts) > 3 {
		p.Task = parts[3]
	}
	return p, nil
}

// Depth returns the number of populated segments.
func (p Pathspec) Depth() int {
	switch {
	case p.Task != "":
		return 4
	case p.Step != "":
		return 3
	case p.RunID != "":
		return 2
	case p.Flow != "":
		return 1
	default:
		return 0
	}
}

func (p Pathspec) String() string {
	parts := []string{p.Flow, p.RunID, p.Step, p.Task}
	return JoinPathspec(parts[:p.Depth()]...)
}

// RunIDFromPathspec returns the second slash-delimited segment of a pathspec.
func RunIDFromPathspec(raw string) (string, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("pathspec %q has no run segment", raw)
	}
	return parts[1], nil
}
