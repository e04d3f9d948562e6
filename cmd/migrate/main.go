package main

// Run database migrations:
//   go run ./cmd/migrate
// With EXPERIENCE_STORE=sqlite the SQLite experience schema is migrated too.

import (
	"context"
	"log"
	"os"

	"resume-generator/internal/shared/config"
	"resume-generator/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.ExperienceStore == "sqlite" {
		sqliteDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			log.Printf("failed to open sqlite: %v", err)
			os.Exit(1)
		}
		defer sqliteDB.Close()
		if err := db.RunSQLiteMigrations(ctx, sqliteDB); err != nil {
			log.Printf("failed to run sqlite migrations: %v", err)
			os.Exit(1)
		}
	}

	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL empty; skipping postgres migrations")
		return
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
