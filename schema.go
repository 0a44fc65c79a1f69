package identity

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const migrationsDir = "data/sql/migrations"

// Migrate applies the embedded schema migrations in filename order. Every
// statement is IF NOT EXISTS so a re-run against an up-to-date database is
// a no-op.
func Migrate(ctx context.Context, db *bun.DB) error {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to read embedded migrations")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+name)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to read migration "+name)
		}

		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to apply migration "+name)
		}
	}

	return nil
}
