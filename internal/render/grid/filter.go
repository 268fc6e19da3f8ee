package grid

import (
	"math/rand/v2"
	"strings"

	"github.com/animus-labs/flowreel/internal/domain"
)

// MatchMode decides how the prompt and style filters combine.
type MatchMode int

const (
	// MatchAll keeps records satisfying every non-empty filter.
	MatchAll MatchMode = iota
	// MatchAny keeps records satisfying at least one non-empty filter.
	MatchAny
)

func (m MatchMode) String() string {
	switch m {
	case MatchAny:
		return "any"
	default:
		return "all"
	}
}

// ParseMatchMode accepts "all" or "any".
func ParseMatchMode(raw string) (MatchMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return MatchAll, true
	case "any":
		return MatchAny, true
	default:
		return MatchAll, false
	}
}

// Filter returns the records whose prompt and style contain the given
// substrings, case-insensitively. Empty filters are ignored; with no filters
// every record matches. Order is preserved and no record appears twice.
func Filter(records []domain.PromptRecord, prompt, style string, mode MatchMode) []domain.PromptRecord {
	prompt = strings.ToLower(strings.TrimSpace(prompt))
	style = strings.ToLower(strings.TrimSpace(style))

	out := make([]domain.PromptRecord, 0, len(records))
	for _, rec := range records {
		if matches(rec, prompt, style, mode) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec domain.PromptRecord, prompt, style string, mode MatchMode) bool {
	if prompt == "" && style == "" {
		return true
	}
	promptHit := prompt != "" && strings.Contains(strings.ToLower(rec.Prompt), prompt)
	styleHit := style != "" && strings.Contains(strings.ToLower(rec.Style), style)

	if mode == MatchAny {
		return promptHit || styleHit
	}
	return (prompt == "" || promptHit) && (style == "" || styleHit)
}

// pick chooses up to n records. Random picks are drawn with replacement.
func pick(records []domain.PromptRecord, n int, random bool, rng *rand.Rand) []domain.PromptRecord {
	n = min(n, len(records))
	if n <= 0 {
		return nil
	}
	if !random {
		return append([]domain.PromptRecord(nil), records[:n]...)
	}
	out := make([]domain.PromptRecord, n)
	for i := range out {
		out[i] = records[rng.IntN(len(records))]
	}
	return out
}
