package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/datalumen/lumen/internal/config"
	"github.com/datalumen/lumen/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "Migration action: up, down, version, force")
	version := flag.Int("version", 0, "Target version (for force action)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// golang-migrate drives a database/sql connection, not the pgx pool.
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	migrator, err := database.NewMigrator(db, "lumen")
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	switch *action {
	case "up":
		log.Println("Applying migrations...")
		if err := migrator.Up(); err != nil {
			return err
		}
		log.Println("✓ Schema is up to date")

	case "down":
		log.Println("Rolling back one migration...")
		if err := migrator.Down(); err != nil {
			return err
		}
		log.Println("✓ Rolled back one migration")

	case "version":
		v, dirty, err := migrator.Version()
		if err != nil {
			return err
		}
		if dirty {
			log.Printf("Schema version: %d (DIRTY - fix by hand, then force)\n", v)
		} else {
			log.Printf("Schema version: %d\n", v)
		}

	case "force":
		if *version == 0 {
			return fmt.Errorf("force requires -version")
		}
		log.Printf("Forcing schema version to %d...\n", *version)
		if err := migrator.Force(*version); err != nil {
			return err
		}
		log.Println("✓ Schema version forced")

	default:
		return fmt.Errorf("unknown action %q (use: up, down, version, force)", *action)
	}

	return nil
}
