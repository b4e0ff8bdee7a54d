package pgxdbtest

import (
	"context"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for pgtestdb
	"github.com/peterldowns/pgtestdb"
	"github.com/stretchr/testify/require"
)

// Config points pgtestdb at the Postgres server used for acceptance tests
type Config struct {
	User     string `env:"PGTESTDB_USER" envDefault:"repweights"`
	Password string `env:"PGTESTDB_PASSWORD" envDefault:"repweights"`
	Host     string `env:"PGTESTDB_HOST" envDefault:"localhost"`
	Port     string `env:"PGTESTDB_PORT" envDefault:"5432"`
	Options  string `env:"PGTESTDB_OPTIONS" envDefault:"sslmode=disable"`
}

// CreateTestDatabase creates an isolated database prepared by migrator.
// Returns the connection pool and database URL for further connections.
func CreateTestDatabase(t *testing.T, migrator pgtestdb.Migrator) (*pgxpool.Pool, string) {
	t.Helper()

	cfg, err := env.ParseAs[Config]()
	require.NoError(t, err)

	dbConfig := pgtestdb.Custom(t, pgtestdb.Config{
		DriverName: "pgx",
		User:       cfg.User,
		Password:   cfg.Password,
		Host:       cfg.Host,
		Port:       cfg.Port,
		Options:    cfg.Options,
	}, migrator)
	dbURL := dbConfig.URL()

	t.Logf("testdbconf: %s", dbURL)

	pool, err := createTestConnection(t.Context(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool, dbURL
}

// createTestConnection creates a connection pool for sequential test statements
func createTestConnection(ctx context.Context, connectionString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, err
	}

	config.MinConns = 1
	config.MaxConns = 2
	config.MaxConnIdleTime = 1 * time.Minute
	config.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, config)
}
