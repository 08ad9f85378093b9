// Package blob stores uploaded resume files. The production store is a GCS
// bucket keyed by "{userID}/resume.pdf"; an in-memory store backs tests.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
)

// ErrNotFound is returned when no object exists at the requested key.
var ErrNotFound = errors.New("blob not found")

// Store is a key-addressed byte store.
type Store interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, contentType string, data []byte) error
	// Get reads the object at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Close releases underlying connections.
	Close() error
}

// ResumeKey returns the canonical object key for a user's uploaded resume.
// One resume per user: re-uploads overwrite in place.
func ResumeKey(userID string) string {
	return userID + "/resume.pdf"
}

// GCSStore stores objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCSStore creates a store backed by the named bucket, using application
// default credentials.
func NewGCSStore(ctx context.Context, bucketName string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{
		client: client,
		bucket: client.Bucket(bucketName),
	}, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, contentType string, data []byte) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ObjectAttrs.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object %s: %w", key, err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// MemoryStore keeps objects in process memory. Used in tests and local
// development without GCS credentials.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, key string, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = bytes.Clone(data)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
