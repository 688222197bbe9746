package pg_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"fxledger/internal/infrastructure/pg"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// One container serves the whole package; the reaper removes it after the run.
var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

func startContainer() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	container, err := postgres.RunContainer(ctx,
		postgres.WithDatabase("fxledger"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
	)
	if err != nil {
		pgErr = err
		return
	}
	pgDSN, pgErr = container.ConnectionString(ctx, "sslmode=disable")
}

// withPostgres returns a migrated database with empty tables.
func withPostgres(t *testing.T) *pg.DB {
	t.Helper()
	if os.Getenv("TESTCONTAINERS") == "" {
		t.Skip("set TESTCONTAINERS=1 to run containerized PG tests")
	}
	pgOnce.Do(startContainer)
	require.NoError(t, pgErr)

	ctx := context.Background()
	db, err := pg.Connect(ctx, pgDSN)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, pg.RunMigrations(ctx, db))
	_, err = db.Pool.Exec(ctx, `TRUNCATE exchange_rates, invoices`)
	require.NoError(t, err)
	return db
}
