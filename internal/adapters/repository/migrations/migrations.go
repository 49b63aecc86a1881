// Package migrations holds the contacts schema for each supported dialect and
// applies it with golang-migrate.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite3/*.sql
var files embed.FS

// Migrator wraps golang-migrate for a database handle owned by the caller.
type Migrator struct {
	m       *migrate.Migrate
	release func() error
}

// New prepares a migrator for db. dialect is "postgres" or "sqlite3".
func New(ctx context.Context, db *sql.DB, dialect string, logger *slog.Logger) (*Migrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	src, err := iofs.New(files, dialect)
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	var (
		drv     database.Driver
		release = func() error { return nil }
	)
	switch dialect {
	case "postgres":
		// A dedicated connection keeps the advisory lock session-bound and
		// lets Close return it to the pool without closing db.
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire migration connection: %w", err)
		}
		pg, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("init postgres migration driver: %w", err)
		}
		drv, release = pg, pg.Close
	case "sqlite3":
		drv, err = sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return nil, fmt.Errorf("init sqlite3 migration driver: %w", err)
		}
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, drv)
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = &migrateLogger{logger: logger.WithGroup("migrate")}

	return &Migrator{m: m, release: release}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("migrate down: invalid steps %d", steps)
	}
	if err := m.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}

	return nil
}

// Version reports the applied version. ok is false when nothing is applied.
func (m *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("migrate version: %w", err)
	}

	return version, dirty, true, nil
}

// Force sets the version without running migrations, clearing a dirty state.
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("migrate force: %w", err)
	}

	return nil
}

// Close releases migration resources. The database handle stays open.
func (m *Migrator) Close() error {
	return m.release()
}

// Up is a shorthand that applies every pending migration on db.
func Up(ctx context.Context, db *sql.DB, dialect string, logger *slog.Logger) error {
	m, err := New(ctx, db, dialect, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	return m.Up()
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool { return false }
