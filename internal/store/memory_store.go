package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a non-durable KV used in tests and with STORE_DRIVER=memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, namespace, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[namespace][key]
	return val, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[namespace]; !ok {
		s.data[namespace] = make(map[string]string)
	}
	s.data[namespace][key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entries, ok := s.data[namespace]; ok {
		delete(entries, key)
		if len(entries) == 0 {
			delete(s.data, namespace)
		}
	}
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, namespace string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data[namespace]))
	for k := range s.data[namespace] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Clear(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, namespace)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
