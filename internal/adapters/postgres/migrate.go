package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every embedded migration in file name order. Each file is
// idempotent, so re-running is safe.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	applied := make([]string, 0, len(files))
	for _, f := range files {
		data, err := migrationsFS.ReadFile(f)
		if err != nil {
			return applied, fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
			return applied, fmt.Errorf("exec %s: %w", f, err)
		}
		slog.Info("migration applied", "file", f)
		applied = append(applied, f)
	}
	return applied, nil
}
