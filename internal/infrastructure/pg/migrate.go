package pg

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"fxledger/internal/infrastructure/logx"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	pgdriver "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var fs embed.FS

const migrateTable = "fxledger_schema_migrations"

// RunMigrations applies the embedded schema (exchange_rates, invoices) up to
// the latest version.
func RunMigrations(ctx context.Context, db *DB) error {
	src, err := iofs.New(fs, "migrations")
	if err != nil {
		return fmt.Errorf("migrate src: %w", err)
	}
	sqldb, err := sql.Open("pgx", db.Pool.Config().ConnString())
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer sqldb.Close()

	if err := waitReachable(ctx, sqldb); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	driver, err := pgdriver.WithInstance(sqldb, &pgdriver.Config{MigrationsTable: migrateTable})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	logx.WithFields(ctx).Info("sql.migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// waitReachable pings until the server accepts connections; a fresh
// container may refuse them for a few seconds.
func waitReachable(ctx context.Context, sqldb *sql.DB) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 15 * time.Second
	return backoff.Retry(func() error { return sqldb.PingContext(ctx) }, backoff.WithContext(b, ctx))
}
