package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations
var migrationFS embed.FS

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// Migrate applies the dialect's embedded .sql files in name order. Applied
// versions are recorded in schema_migrations and skipped on later runs; each
// file runs in its own transaction together with its version record.
func Migrate(ctx context.Context, e *Executor, d Dialect, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if _, err := e.Execute(ctx, createMigrationsTable, nil); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationFS, d.Migrations)
	if err != nil {
		return fmt.Errorf("read migrations for %s: %w", d.Name, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		applied, err := e.FetchOne(ctx, `SELECT version FROM schema_migrations WHERE version = :version`, map[string]any{"version": file})
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if applied != nil {
			logger.Debugw("skipping applied migration", "file", file)
			continue
		}

		content, err := fs.ReadFile(migrationFS, path.Join(d.Migrations, file))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		logger.Infow("applying migration", "file", file)
		err = e.InTx(ctx, func(tx *Executor) error {
			if _, err := tx.Execute(ctx, string(content), nil); err != nil {
				return err
			}
			_, err := tx.Execute(ctx, `INSERT INTO schema_migrations (version) VALUES (:version)`, map[string]any{"version": file})
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}
