// Package migration wraps golang-migrate for schema management. Versions are
// sequential six-digit numbers matching the files under migrations/.
package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies and rolls back SQL migrations against postgres
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// New creates a migrator over an open database handle
func New(db *sql.DB, dir string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{m: m, logger: logger.Named("migration")}, nil
}

// Up applies every pending migration
func (g *Migrator) Up() error {
	if err := g.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			g.logger.Info("Schema already up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	g.logVersion("Migrations applied")
	return nil
}

// Down rolls back every applied migration
func (g *Migrator) Down() error {
	if err := g.m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			g.logger.Info("Nothing to roll back")
			return nil
		}
		return fmt.Errorf("migrate down: %w", err)
	}
	g.logger.Info("All migrations rolled back")
	return nil
}

// Steps moves n migrations forward (n > 0) or backward (n < 0)
func (g *Migrator) Steps(n int) error {
	if err := g.m.Steps(n); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			g.logger.Info("Schema already up to date")
			return nil
		}
		return fmt.Errorf("migrate %d steps: %w", n, err)
	}
	g.logVersion("Migration steps applied")
	return nil
}

// Goto migrates up or down to the exact version
func (g *Migrator) Goto(version uint) error {
	if err := g.m.Migrate(version); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			g.logger.Info("Already at requested version", zap.Uint("version", version))
			return nil
		}
		return fmt.Errorf("migrate to version %d: %w", version, err)
	}
	g.logVersion("Migrated to version")
	return nil
}

// Version reports the current schema version; ok is false when no migration
// has been applied yet
func (g *Migrator) Version() (version uint, dirty, ok bool, err error) {
	version, dirty, err = g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, true, nil
}

// Force overwrites the recorded version without running any SQL. Only for
// repairing a dirty schema after a failed migration.
func (g *Migrator) Force(version int) error {
	g.logger.Warn("Forcing schema version", zap.Int("version", version))
	if err := g.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop destroys every object in the database
func (g *Migrator) Drop() error {
	g.logger.Warn("Dropping all database objects")
	if err := g.m.Drop(); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

// Close releases the source and database handles
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	if srcErr != nil {
		return fmt.Errorf("close migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}

func (g *Migrator) logVersion(msg string) {
	version, dirty, ok, err := g.Version()
	if err != nil || !ok {
		g.logger.Info(msg)
		return
	}
	g.logger.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
}
