// Package migrator owns the snapshot archive schema and its embedded migrations.
package migrator

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"
)

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	migrationsRoot      = "migrations"
	schemaHashPrefix    = "weights_schema_"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration-related errors
var (
	ErrMigrationExecution = errors.New("migration execution failed")
	ErrMigrationHash      = errors.New("migration hash calculation failed")
)

// Source returns the embedded migration source
func Source() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationsFS,
		Root:       migrationsRoot,
	}
}

// SchemaMigrator applies the archive schema; it satisfies pgtestdb.Migrator
// so test databases are cloned from a template built with the same migrations.
type SchemaMigrator struct {
	source migrate.MigrationSource
}

// NewSchemaMigrator creates a migrator over the embedded migrations
func NewSchemaMigrator() *SchemaMigrator {
	return &SchemaMigrator{source: Source()}
}

func (m *SchemaMigrator) Hash() (string, error) {
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}
	sqlMigrator := sqlmigrator.New(m.source, migrationSet)

	baseHash, err := sqlMigrator.Hash()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMigrationHash, err)
	}

	return schemaHashPrefix + baseHash, nil
}

func (m *SchemaMigrator) Migrate(_ context.Context, db *sql.DB, _ pgtestdb.Config) error {
	_, err := applyMigrations(db, m.source)
	return err
}

// ApplyMigrations applies pending migrations through the pgx pool and
// returns how many were applied
func ApplyMigrations(pool *pgxpool.Pool) (int, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, Source())
}

func applyMigrations(db *sql.DB, source migrate.MigrationSource) (int, error) {
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	applied, err := migrationSet.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return applied, nil
}
