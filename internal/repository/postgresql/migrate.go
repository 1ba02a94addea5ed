package postgresql

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// migrationLockID serialises concurrent migrators through an advisory lock.
const migrationLockID int64 = 7_204_611

// Migration is one forward-only schema change.
type Migration struct {
	Version string // numeric prefix of the file name, e.g. "000006"
	Name    string
	SQL     string
}

// LoadMigrations reads every *.up.sql file in fsys, ordered by version.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	seen := make(map[string]string)
	for _, file := range entries {
		base := strings.TrimSuffix(path.Base(file), ".up.sql")
		version, name, ok := strings.Cut(base, "_")
		if !ok || version == "" {
			return nil, fmt.Errorf("migration %q: file name must look like <version>_<name>.up.sql", file)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %s used by both %q and %q", version, other, file)
		}
		seen[version] = file

		body, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %q: %w", file, err)
		}

		migrations = append(migrations, Migration{Version: version, Name: name, SQL: string(body)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// Migrator applies embedded migrations and records them in
// schema_migrations.
type Migrator struct {
	db     *database.DB
	logger *slog.Logger
}

func NewMigrator(db *database.DB, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{db: db, logger: logger}
}

// Pending returns the migrations not yet recorded. It does not create the
// bookkeeping table, so it is safe for dry runs.
func (m *Migrator) Pending(ctx context.Context, migrations []Migration) ([]Migration, error) {
	var exists bool
	if err := m.db.QueryRow(ctx, `SELECT to_regclass('schema_migrations') IS NOT NULL`).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to inspect schema_migrations: %w", classify(err))
	}
	if !exists {
		return migrations, nil
	}

	rows, err := m.db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", classify(err))
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan applied migrations: %w", err)
	}

	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	var pending []Migration
	for _, mig := range migrations {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}

	return pending, nil
}

// Apply runs every pending migration, each in its own transaction, and
// returns those it applied.
func (m *Migrator) Apply(ctx context.Context, migrations []Migration) ([]Migration, error) {
	_, err := m.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    VARCHAR(32) PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", classify(err))
	}

	var applied []Migration
	for _, mig := range migrations {
		ran := false
		err := WithTransaction(ctx, m.db, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
				return fmt.Errorf("failed to acquire migration lock: %w", err)
			}

			var exists bool
			err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, mig.Version).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check migration %s: %w", mig.Version, err)
			}
			if exists {
				return nil
			}

			if _, err := tx.Exec(ctx, mig.SQL); err != nil {
				return fmt.Errorf("failed to apply migration %s_%s: %w", mig.Version, mig.Name, err)
			}

			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", mig.Version, err)
			}

			ran = true
			return nil
		})
		if err != nil {
			return applied, err
		}

		if ran {
			m.logger.Info("Applied migration", slog.String("version", mig.Version), slog.String("name", mig.Name))
			applied = append(applied, mig)
		}
	}

	return applied, nil
}
