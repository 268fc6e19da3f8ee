package objectstore

import (
	"context"
	"io"
	"time"
)

// Store abstracts read access to S3-compatible object storage.
type Store interface {
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	// List returns every object under prefix, recursively, in key order.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}
