package db

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

//go:embed migrations_sqlite/*.sql
var sqliteMigrationFiles embed.FS

// RunMigrations applies embedded Postgres migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return run(ctx, database, migrationFiles, "postgres", "migrations")
}

// RunSQLiteMigrations applies the SQLite schema for the experience store.
func RunSQLiteMigrations(ctx context.Context, database *sql.DB) error {
	return run(ctx, database, sqliteMigrationFiles, "sqlite3", "migrations_sqlite")
}

func run(ctx context.Context, database *sql.DB, fsys embed.FS, dialect, dir string) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, dir)
}
