package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "podforge/internal/app/errors"
)

// MemoryObjectStore implements ObjectStore in memory (for testing)
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	clock   time.Time
}

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// NewMemoryObjectStore creates an empty in-memory object store
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{
		objects: make(map[string]memoryObject),
		clock:   time.Now(),
	}
}

// PutText stores a text object, advancing the internal clock so listing
// order by last-modified is deterministic in tests.
func (s *MemoryObjectStore) PutText(key, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Second)
	s.objects[key] = memoryObject{
		data:         []byte(text),
		contentType:  "text/plain",
		lastModified: s.clock,
	}
}

// PutTextAt stores a text object with an explicit last-modified timestamp
func (s *MemoryObjectStore) PutTextAt(key, text string, lastModified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{
		data:         []byte(text),
		contentType:  "text/plain",
		lastModified: lastModified,
	}
}

func (s *MemoryObjectStore) GetText(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return "", apperrors.ErrObjectNotFound
	}
	return string(obj.data), nil
}

func (s *MemoryObjectStore) ListByPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var infos []ObjectInfo
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, ObjectInfo{Key: key, LastModified: obj.lastModified})
		}
	}
	return infos, nil
}

func (s *MemoryObjectStore) PutBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Second)
	s.objects[key] = memoryObject{
		data:         append([]byte(nil), data...),
		contentType:  contentType,
		lastModified: s.clock,
	}
	return fmt.Sprintf("memory://%s", key), nil
}

func (s *MemoryObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryObjectStore) DeleteBatch(ctx context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.objects, key)
	}
	return nil
}

// Len returns the number of stored objects
func (s *MemoryObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
