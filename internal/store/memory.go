package store

import (
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("key not found")
)

// Storage is a durable key-value store holding opaque documents.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// MemoryStorage is a concurrency-safe in-memory Storage. Nothing survives
// the process; it backs tests and runs without a data directory.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailWrites makes every Set fail, for exercising degraded paths.
	FailWrites error
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *MemoryStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set replaces the value stored under key.
func (s *MemoryStorage) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}
