package postgres

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate provisions the flow metadata schema. The schema is written by the
// workflow engine's metadata service; flowreel only reads it.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database not opened")
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the applied schema version.
func MigrationVersion(db *sql.DB) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}
