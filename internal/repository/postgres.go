package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

type PoolConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetimeS int
	ConnMaxIdleTimeS int
	// ConnectAttempts is how many times to ping, one second apart, before
	// giving up. Values below one mean a single attempt.
	ConnectAttempts int
}

func NewPostgresDB(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresDB: open: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeS) * time.Second)

	attempts := max(pool.ConnectAttempts, 1)
	for i := range attempts {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		if i == attempts-1 {
			break
		}
		slog.Info("waiting for database", "attempt", i+1)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("NewPostgresDB: %w", ctx.Err())
		case <-time.After(time.Second):
		}
	}

	db.Close()
	return nil, fmt.Errorf("NewPostgresDB: ping after %d attempts: %w", attempts, err)
}
