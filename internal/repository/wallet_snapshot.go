package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
)

// PostgresStore keeps each named snapshot as one JSONB row.
type PostgresStore struct {
	db  *sql.DB
	key string
}

func NewPostgresStore(db *sql.DB, key string) *PostgresStore {
	return &PostgresStore{db: db, key: key}
}

func (s *PostgresStore) Load(ctx context.Context, defaults domain.Account) (*domain.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM wallet_snapshots WHERE key = $1`,
		s.key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("PostgresStore.Load: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("PostgresStore.Load: %w", err)
	}

	snap, err := DecodeSnapshot(data, defaults)
	if err != nil {
		return nil, fmt.Errorf("PostgresStore.Load: %w", err)
	}
	return snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("PostgresStore.Save: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO wallet_snapshots (key, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		s.key, string(data),
	)
	if err != nil {
		return fmt.Errorf("PostgresStore.Save: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("PostgresStore.Ping: %w", err)
	}
	return nil
}
