// Package invocation tags each command run with an identifier so its log
// lines can be grouped.
package invocation

import (
	"log/slog"

	"github.com/google/uuid"
)

const LogKey = "invocation_id"

func NewID() string {
	return uuid.NewString()
}

// Logger returns logger with a fresh invocation id attached, and the id.
func Logger(logger *slog.Logger, command string) (*slog.Logger, string) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := NewID()
	return logger.With(LogKey, id, "command", command), id
}
