package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kvetinski/contacts/internal/adapters/repository"
	"github.com/kvetinski/contacts/internal/adapters/repository/migrations"
)

// MigrateCmd groups the schema commands. They talk to the database directly,
// not to the server.
type MigrateCmd struct {
	Up      MigrateUpCmd      `cmd:"" help:"Apply all pending migrations."`
	Down    MigrateDownCmd    `cmd:"" help:"Roll back migrations."`
	Version MigrateVersionCmd `cmd:"" help:"Print the applied schema version."`
	Force   MigrateForceCmd   `cmd:"" help:"Set the schema version without migrating."`
}

type dbFlags struct {
	Driver      string `help:"Database driver." enum:"postgres,sqlite3" default:"postgres" env:"DB_DRIVER"`
	DatabaseURI string `name:"database-uri" help:"Database connection URI." env:"DATABASE_URI" required:""`
}

// withMigrator opens the database, runs fn and releases everything.
func (f dbFlags) withMigrator(fn func(*migrations.Migrator) error) error {
	dialect, err := repository.ParseDialect(f.Driver)
	if err != nil {
		return errSetup(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := repository.Open(ctx, dialect, f.DatabaseURI)
	if err != nil {
		return errSetup(err)
	}
	defer db.Close()

	m, err := migrations.New(ctx, db, string(dialect), nil)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

type MigrateUpCmd struct {
	DB dbFlags `embed:""`
}

func (c *MigrateUpCmd) Run(a *app) error {
	return c.DB.withMigrator(func(m *migrations.Migrator) error {
		if err := m.Up(); err != nil {
			return err
		}
		return printVersion(a, m)
	})
}

type MigrateDownCmd struct {
	DB    dbFlags `embed:""`
	Steps int     `arg:"" optional:"" default:"1" help:"Number of migrations to roll back."`
}

func (c *MigrateDownCmd) Run(a *app) error {
	return c.DB.withMigrator(func(m *migrations.Migrator) error {
		if err := m.Down(c.Steps); err != nil {
			return err
		}
		return printVersion(a, m)
	})
}

type MigrateVersionCmd struct {
	DB dbFlags `embed:""`
}

func (c *MigrateVersionCmd) Run(a *app) error {
	return c.DB.withMigrator(func(m *migrations.Migrator) error {
		return printVersion(a, m)
	})
}

type MigrateForceCmd struct {
	DB      dbFlags `embed:""`
	Version int     `arg:"" help:"Version to record."`
}

func (c *MigrateForceCmd) Run(a *app) error {
	return c.DB.withMigrator(func(m *migrations.Migrator) error {
		if err := m.Force(c.Version); err != nil {
			return err
		}
		return printVersion(a, m)
	})
}

func printVersion(a *app, m *migrations.Migrator) error {
	v, dirty, ok, err := m.Version()
	if err != nil {
		return err
	}

	switch {
	case !ok:
		_, _ = fmt.Fprintln(a.out, "schema version: none")
	case dirty:
		_, _ = fmt.Fprintf(a.out, "schema version: %d (dirty)\n", v)
	default:
		_, _ = fmt.Fprintf(a.out, "schema version: %d\n", v)
	}

	return nil
}
