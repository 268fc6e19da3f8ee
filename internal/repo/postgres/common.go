package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/repo"
)

type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FlowStore reads workflow run metadata. It implements repo.FlowReader.
type FlowStore struct {
	db DB
	// artifactBucket is used for artifact rows that do not name a bucket.
	artifactBucket string
}

func NewFlowStore(db DB, artifactBucket string) *FlowStore {
	if db == nil {
		return nil
	}
	return &FlowStore{db: db, artifactBucket: strings.TrimSpace(artifactBucket)}
}

var _ repo.FlowReader = (*FlowStore)(nil)

func (s *FlowStore) ready() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("flow store not initialized")
	}
	return nil
}

func decodeMetadata(raw []byte) (domain.Metadata, error) {
	if len(raw) == 0 {
		return domain.Metadata{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return domain.Metadata(out), nil
}

func encodeTags(tags []string) (string, error) {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		cleaned = append(cleaned, tag)
	}
	raw, err := json.Marshal(cleaned)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeTags(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func parseDepth(raw string, depth int, kind string) (domain.Pathspec, error) {
	p, err := domain.ParsePathspec(raw)
	if err != nil {
		return domain.Pathspec{}, err
	}
	if p.Depth() != depth {
		return domain.Pathspec{}, fmt.Errorf("%q is not a %s pathspec", raw, kind)
	}
	return p, nil
}

func handleNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}
