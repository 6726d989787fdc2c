package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tendant/simple-hvp/pkg/hvp"
)

// Backend is an in-memory implementation of the hvp.BlobStore interface
type Backend struct {
	mu           sync.RWMutex
	objects      map[string][]byte
	contentTypes map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// Put stores content under objectKey
func (b *Backend) Put(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.objects[objectKey] = data
	b.contentTypes[objectKey] = contentType
	return nil
}

// Get opens stored content
func (b *Backend) Get(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, hvp.ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// ContentType returns the content type recorded for objectKey
func (b *Backend) ContentType(objectKey string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.contentTypes[objectKey]
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return hvp.ErrObjectNotFound
	}

	delete(b.objects, objectKey)
	delete(b.contentTypes, objectKey)
	return nil
}

// List returns the sorted keys under prefix
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := []string{}
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
