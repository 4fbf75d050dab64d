package mock

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"
)

// Blob is an object held by MemoryStore.
type Blob struct {
	Data        []byte
	ContentType string
}

// MemoryStore is an in-memory blob store. The Fail* hooks inject errors per key.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]Blob

	FailPut    func(key string) error
	FailSign   func(key string) error
	FailDelete func(key string) error
	PingErr    error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string]Blob{}}
}

func (s *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if s.FailPut != nil {
		if err := s.FailPut(key); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = Blob{Data: data, ContentType: contentType}
	return nil
}

func (s *MemoryStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if s.FailSign != nil {
		if err := s.FailSign(key); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return "", fmt.Errorf("no such key %q", key)
	}
	return fmt.Sprintf("https://blobs.test/%s?expires=%d", url.PathEscape(key), int(ttl.Seconds())), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if s.FailDelete != nil {
		if err := s.FailDelete(key); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return s.PingErr
}

// Seed stores a blob directly.
func (s *MemoryStore) Seed(key string, data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = Blob{Data: data, ContentType: contentType}
}

func (s *MemoryStore) Get(key string) (Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	return b, ok
}

// Keys lists stored keys in order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
