package repository

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Store is the snapshot persistence contract every driver satisfies.
type Store interface {
	Load(ctx context.Context, defaults domain.Account) (*domain.Snapshot, error)
	Save(ctx context.Context, snap *domain.Snapshot) error
	Ping(ctx context.Context) error
}

type StoreOptions struct {
	Driver      string
	Dir         string
	Key         string
	DatabaseURL string
	Pool        PoolConfig
}

// OpenStore builds the store for opts.Driver. The returned close func
// releases any connection pool and is never nil.
func OpenStore(ctx context.Context, opts StoreOptions) (Store, func() error, error) {
	noop := func() error { return nil }

	switch opts.Driver {
	case DriverFile:
		return NewFileStore(opts.Dir, opts.Key), noop, nil
	case DriverMemory:
		return NewMemoryStore(), noop, nil
	case DriverPostgres:
		db, err := NewPostgresDB(ctx, opts.DatabaseURL, opts.Pool)
		if err != nil {
			return nil, noop, fmt.Errorf("OpenStore: %w", err)
		}
		return NewPostgresStore(db, opts.Key), db.Close, nil
	default:
		return nil, noop, fmt.Errorf("OpenStore: unknown driver %q", opts.Driver)
	}
}
