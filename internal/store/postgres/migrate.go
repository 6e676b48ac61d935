package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/thanhnp/utxo-indexer/internal/apperr"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every pending migration in migrations/ to db,
// following the same golang-migrate workflow bitcoin-sv-arc's
// database_testing suites use against a live connection, adapted to
// run from an embedded filesystem so the binary carries its own
// schema rather than depending on the source tree at runtime.
func Migrate(_ context.Context, db *sql.DB) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to load embedded migrations")
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to create migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to initialize migrator")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperr.Wrap(apperr.DatabaseError, err, "failed to apply migrations")
	}
	return nil
}
