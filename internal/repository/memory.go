package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
)

// MemoryStore keeps the encoded snapshot in memory. Saves can be made to fail
// with SetSaveError.
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	saveErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context, defaults domain.Account) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return nil, fmt.Errorf("MemoryStore.Load: %w", domain.ErrNotFound)
	}
	snap, err := DecodeSnapshot(s.data, defaults)
	if err != nil {
		return nil, fmt.Errorf("MemoryStore.Load: %w", err)
	}
	return snap, nil
}

func (s *MemoryStore) Save(_ context.Context, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return fmt.Errorf("MemoryStore.Save: %w", s.saveErr)
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("MemoryStore.Save: %w", err)
	}
	s.data = data
	s.saves++
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) SetSaveError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Raw returns the last saved record as stored.
func (s *MemoryStore) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// SetRaw replaces the stored record, as if written by another client.
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
}
