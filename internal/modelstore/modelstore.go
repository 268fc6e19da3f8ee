// Package modelstore downloads named artifact sets that flow tasks publish to
// object storage.
//
// Layout inside the models bucket:
//
//	<root>/<flow>/<run>/<step>/<task>/<artifact set>/<relative path>
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/animus-labs/flowreel/internal/domain"
	"github.com/animus-labs/flowreel/internal/storage/objectstore"
)

var ErrArtifactSetNotFound = errors.New("artifact set not found")

type Store struct {
	objects objectstore.Store
	bucket  string
	root    string
	logger  *slog.Logger
}

func New(objects objectstore.Store, bucket, root string, logger *slog.Logger) (*Store, error) {
	if objects == nil {
		return nil, errors.New("object store is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		objects: objects,
		bucket:  bucket,
		root:    strings.Trim(strings.TrimSpace(root), "/"),
		logger:  logger,
	}, nil
}

// Handle is a model store scoped to one task.
type Handle struct {
	store    *Store
	pathspec string
	prefix   string
}

// FromPathspec opens the model store of the task addressed by taskPathspec.
func (s *Store) FromPathspec(taskPathspec string) (*Handle, error) {
	if s == nil {
		return nil, errors.New("model store not initialized")
	}
	p, err := domain.ParsePathspec(taskPathspec)
	if err != nil {
		return nil, err
	}
	if p.Depth() != 4 {
		return nil, fmt.Errorf("%q is not a task pathspec", taskPathspec)
	}
	prefix := p.String()
	if s.root != "" {
		prefix = path.Join(s.root, prefix)
	}
	return &Handle{store: s, pathspec: p.String(), prefix: prefix}, nil
}

func (h *Handle) Pathspec() string {
	return h.pathspec
}

// Download writes every object of the named artifact set under dest,
// preserving relative paths, and returns the written file paths.
func (h *Handle) Download(ctx context.Context, name, dest string) ([]string, error) {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return nil, errors.New("artifact set name is required")
	}
	if strings.TrimSpace(dest) == "" {
		return nil, errors.New("destination is required")
	}
	setPrefix := path.Join(h.prefix, name) + "/"
	objects, err := h.store.objects.List(ctx, h.store.bucket, setPrefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", setPrefix, err)
	}

	written := make([]string, 0, len(objects))
	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Key, setPrefix)
		if rel == "" || strings.HasSuffix(rel, "/") {
			continue
		}
		target, err := localPath(dest, rel)
		if err != nil {
			return nil, err
		}
		if err := h.fetch(ctx, obj.Key, target); err != nil {
			return nil, err
		}
		written = append(written, target)
	}
	if len(written) == 0 {
		return nil, fmt.Errorf("download %q for %s: %w", name, h.pathspec, ErrArtifactSetNotFound)
	}
	h.store.logger.Info("artifact set downloaded",
		"pathspec", h.pathspec,
		"artifact", name,
		"files", len(written),
		"path", dest,
	)
	return written, nil
}

func (h *Handle) fetch(ctx context.Context, key, target string) error {
	body, _, err := h.store.objects.Get(ctx, h.store.bucket, key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", target, err)
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	return nil
}

func localPath(dest, rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("object path %q escapes destination", rel)
	}
	return filepath.Join(dest, clean), nil
}

// Download fetches the named artifact set of the task at taskPathspec into dest.
func (s *Store) Download(ctx context.Context, taskPathspec, name, dest string) ([]string, error) {
	handle, err := s.FromPathspec(taskPathspec)
	if err != nil {
		return nil, err
	}
	return handle.Download(ctx, name, dest)
}
