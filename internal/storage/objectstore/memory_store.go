package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and local dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memoryObject
	gets    int
}

type memoryObject struct {
	body        []byte
	contentType string
	modified    time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]memoryObject{}}
}

// Put stores body under bucket/key.
func (s *MemoryStore) Put(bucket, key string, body []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = memoryObject{body: append([]byte(nil), body...), contentType: contentType, modified: time.Now().UTC()}
}

// Gets reports how many objects have been read.
func (s *MemoryStore) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func (s *MemoryStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, ObjectInfo{}, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	s.gets++
	return io.NopCloser(bytes.NewReader(obj.body)), obj.info(key), nil
}

func (s *MemoryStore) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[bucket+"/"+key]
	if !ok {
		return ObjectInfo{}, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return obj.info(key), nil
}

func (s *MemoryStore) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ObjectInfo, 0)
	for full, obj := range s.objects {
		key, ok := strings.CutPrefix(full, bucket+"/")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, obj.info(key))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (o memoryObject) info(key string) ObjectInfo {
	return ObjectInfo{Key: key, Size: int64(len(o.body)), ContentType: o.contentType, LastModified: o.modified}
}
