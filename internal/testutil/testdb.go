package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/josh-kwaku/pocket-wallet/internal/repository"
)

// SetupTestDB starts a disposable Postgres, applies migrations/*.up.sql and
// returns a connection. Skipped under -short.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("wallet_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	dir, err := repository.FindMigrationsDir(wd)
	if err != nil {
		t.Fatalf("locate migrations: %v", err)
	}
	if _, err := repository.ApplyMigrations(ctx, db, dir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}

// ResetTable empties a table between suite tests.
func ResetTable(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	if _, err := db.Exec("TRUNCATE " + table); err != nil {
		t.Fatalf("truncate %s: %v", table, err)
	}
}
