package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/agentfox/agentfox/internal/pkg/env"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	dbURL := fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		env.GetEnv("DB_USER", "agentfox"),
		env.GetEnv("DB_PASSWORD", "agentfox"),
		env.GetEnv("DB_HOST", "db"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "agentfox_db"),
	)
	log.Printf("Using database %s@%s:%s/%s",
		env.GetEnv("DB_USER", "agentfox"),
		env.GetEnv("DB_HOST", "db"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "agentfox_db"),
	)

	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrations: %v", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("Failed to close migration resources: %v, %v", sourceErr, dbErr)
		}
	}()

	switch os.Args[1] {
	case "up":
		runUp(m)
	case "down":
		runDown(m)
	case "goto":
		runGoto(m, versionArg())
	case "force":
		runForce(m, versionArg())
	case "status":
		runStatus(m)
	default:
		printUsage()
		os.Exit(1)
	}
}

func runUp(m *migrate.Migrate) {
	switch err := m.Up(); err {
	case nil:
		log.Println("Migrations applied")
	case migrate.ErrNoChange:
		log.Println("No change: database is already up to date")
	default:
		log.Fatalf("Failed to apply migrations: %v", err)
	}
}

func runDown(m *migrate.Migrate) {
	if err := m.Steps(-1); err != nil {
		log.Fatalf("Failed to roll back last migration: %v", err)
	}
	log.Println("Rolled back one migration")
}

func runGoto(m *migrate.Migrate, version uint64) {
	switch err := m.Migrate(uint(version)); err {
	case nil:
		log.Printf("Migrated to version %d", version)
	case migrate.ErrNoChange:
		log.Printf("No change: database is already at version %d", version)
	default:
		log.Fatalf("Failed to migrate to version %d: %v", version, err)
	}
}

// runForce overwrites the recorded version without running migrations, for
// recovering from a dirty state after a failed migration.
func runForce(m *migrate.Migrate, version uint64) {
	if err := m.Force(int(version)); err != nil {
		log.Fatalf("Failed to force version %d: %v", version, err)
	}
	log.Printf("Forced version to %d", version)
}

func runStatus(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			log.Println("No migrations have been applied yet")
			return
		}
		log.Fatalf("Failed to read migration version: %v", err)
	}
	suffix := ""
	if dirty {
		suffix = " (dirty)"
	}
	log.Printf("Current migration version: %d%s", version, suffix)
}

func versionArg() uint64 {
	if len(os.Args) < 3 {
		log.Fatal("A version number is required")
	}
	version, err := strconv.ParseUint(os.Args[2], 10, 64)
	if err != nil {
		log.Fatalf("Invalid version number: %v", err)
	}
	return version
}

func printUsage() {
	fmt.Println("Usage: go run cmd/migrate/main.go <command>")
	fmt.Println("Commands:")
	fmt.Println("  up              apply all pending migrations")
	fmt.Println("  down            roll back the last migration")
	fmt.Println("  goto <version>  migrate to a specific version")
	fmt.Println("  force <version> overwrite the recorded version (dirty-state recovery)")
	fmt.Println("  status          show the current migration version")
}
