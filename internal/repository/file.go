package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
)

// FileStore keeps the snapshot as <dir>/<key>.json.
type FileStore struct {
	dir string
	key string
}

func NewFileStore(dir, key string) *FileStore {
	return &FileStore{dir: dir, key: key}
}

func (s *FileStore) Path() string {
	return filepath.Join(s.dir, s.key+".json")
}

func (s *FileStore) Load(_ context.Context, defaults domain.Account) (*domain.Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("FileStore.Load: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("FileStore.Load: %w", err)
	}

	snap, err := DecodeSnapshot(data, defaults)
	if err != nil {
		return nil, fmt.Errorf("FileStore.Load: %w", err)
	}
	return snap, nil
}

// Save writes to a temp file in the same directory and renames it over the
// previous snapshot so readers never see a partial record.
func (s *FileStore) Save(_ context.Context, snap *domain.Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("FileStore.Save: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("FileStore.Save: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, s.key+".*.tmp")
	if err != nil {
		return fmt.Errorf("FileStore.Save: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("FileStore.Save: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("FileStore.Save: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("FileStore.Save: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("FileStore.Save: rename: %w", err)
	}
	return nil
}

func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("FileStore.Ping: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("FileStore.Ping: %s is not a directory", s.dir)
	}
	return nil
}
