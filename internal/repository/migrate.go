package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ApplyMigrations runs every *.up.sql in dir in name order. The scripts are
// written to be re-runnable.
func ApplyMigrations(ctx context.Context, db *sql.DB, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ApplyMigrations: read dir: %w", err)
	}

	var upFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, f := range upFiles {
		content, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return nil, fmt.Errorf("ApplyMigrations: read %s: %w", f, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return nil, fmt.Errorf("ApplyMigrations: execute %s: %w", f, err)
		}
	}

	return upFiles, nil
}

// FindMigrationsDir walks up from start looking for a migrations directory.
func FindMigrationsDir(start string) (string, error) {
	dir := start
	for range 10 {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("FindMigrationsDir: no migrations directory above %s", start)
}
