package blobstore

import (
	"context"
	"sync"

	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// Memory is an in-memory content-addressed store for tests and
// single-process runs.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Put stores data under its content address.
func (s *Memory) Put(_ context.Context, data []byte) (string, error) {
	address := Address(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[address] = append([]byte{}, data...)
	return address, nil
}

// Get retrieves a blob by content address.
func (s *Memory) Get(_ context.Context, address string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[address]
	if !ok {
		return nil, types.NewError(types.KindNotFound, "blob %s not found", address)
	}
	return append([]byte{}, data...), nil
}

// Len reports the number of stored blobs.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
