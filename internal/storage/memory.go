package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryObject is an object held by MemoryStore.
type MemoryObject struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// MemoryStore keeps objects in process memory. It backs the "memory" driver
// for local development and is used in tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]MemoryObject
	baseURL string
}

// NewMemoryStore constructs a store whose URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string]MemoryObject), baseURL: baseURL}
}

func (m *MemoryStore) Put(ctx context.Context, in PutInput) (PutResult, error) {
	if err := ctx.Err(); err != nil {
		return PutResult{}, err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return PutResult{}, fmt.Errorf("read body for %q: %w", in.Key, err)
	}

	meta := make(map[string]string, len(in.Metadata))
	for k, v := range in.Metadata {
		meta[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[in.Key] = MemoryObject{Data: data, ContentType: in.ContentType, Metadata: meta}
	return PutResult{URL: m.PublicURL(in.Key)}, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("delete %q: %w", key, ErrObjectNotFound)
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) PublicURL(key string) string {
	return JoinURL(m.baseURL, key)
}

// Object returns a stored object for assertions.
func (m *MemoryStore) Object(key string) (MemoryObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ ObjectStore = (*MemoryStore)(nil)
