// Package dbtest spins up a disposable Postgres instance for store-level
// integration tests and applies a service's embedded migrations against
// it. Grounded on the teacher's test/integration/testenv/postgres_container.go,
// ported from its database/sql Config struct to a pgxpool.Pool plus
// platform/dbmigrate's embed.FS-driven Apply, since every service here
// migrates itself the same way at startup.
package dbtest

import (
	"context"
	"embed"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"digitalbank/internal/platform/dbmigrate"
)

// Pool starts a postgres:16-alpine container, applies the given migration
// set, and returns a pool connected to it. The container is torn down via
// t.Cleanup.
func Pool(t *testing.T, migrations embed.FS) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("digitalbank_test"),
		tcpostgres.WithUsername("digitalbank"),
		tcpostgres.WithPassword("digitalbank_test_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres testcontainer")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres testcontainer: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to read testcontainer connection string")

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err, "failed to open pool against testcontainer")
	t.Cleanup(pool.Close)

	require.NoError(t, dbmigrate.Apply(ctx, pool, migrations), "failed to apply migrations")
	return pool
}
