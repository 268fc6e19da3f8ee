// Package flow is the read-only query surface over workflow metadata: runs,
// steps, tasks, and task data artifacts.
package flow

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/animus-labs/flowreel/internal/repo"
	"github.com/animus-labs/flowreel/internal/storage/objectstore"
)

// Client answers run/step/task queries from the metadata store and reads task
// data artifacts from object storage.
type Client struct {
	repo.FlowReader
	objects objectstore.Store
}

func NewClient(reader repo.FlowReader, objects objectstore.Store) (*Client, error) {
	if reader == nil {
		return nil, errors.New("flow reader is required")
	}
	if objects == nil {
		return nil, errors.New("object store is required")
	}
	return &Client{FlowReader: reader, objects: objects}, nil
}

// TaskData returns the raw bytes of the named artifact of a task.
func (c *Client) TaskData(ctx context.Context, taskPathspec, name string) ([]byte, error) {
	if c == nil || c.FlowReader == nil || c.objects == nil {
		return nil, errors.New("flow client not initialized")
	}
	ref, err := c.LocateArtifact(ctx, taskPathspec, name)
	if err != nil {
		return nil, fmt.Errorf("locate %s[%s]: %w", taskPathspec, name, err)
	}
	body, _, err := c.objects.Get(ctx, ref.Bucket, ref.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("get %s[%s]: %w", taskPathspec, name, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s[%s]: %w", taskPathspec, name, err)
	}
	return data, nil
}
