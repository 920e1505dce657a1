package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NoahAppelbaum/warbler/internal/config"
	"github.com/NoahAppelbaum/warbler/internal/middleware"

	"gorm.io/gorm"
)

const (
	// SchemaModeAuto runs GORM AutoMigrate over PersistentModels.
	SchemaModeAuto = "auto"
	// SchemaModeSQL applies the embedded SQL migrations with golang-migrate.
	SchemaModeSQL = "sql"
)

// SchemaStatus describes what ApplySchema will do for a configuration.
type SchemaStatus struct {
	Mode        string
	Environment string
	Dialect     string
	Version     uint
	Dirty       bool
}

func schemaMode(cfg *config.Config) string {
	if cfg.DBSchemaMode == "" {
		return SchemaModeAuto
	}
	return cfg.DBSchemaMode
}

// ApplySchema brings the schema up to date using the configured mode. SQL migrations
// are written for postgres; sqlite databases always use AutoMigrate.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode := schemaMode(cfg)

	if mode == SchemaModeSQL && db.Dialector.Name() == "postgres" {
		if err := RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
		return nil
	}
	if mode != SchemaModeAuto && mode != SchemaModeSQL {
		return fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}

	middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate",
		slog.String("mode", mode), slog.String("env", cfg.Env), slog.String("dialect", db.Dialector.Name()))
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// AutoMigrate creates or updates the tables for PersistentModels.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// GetSchemaStatus reports the schema mode and, for SQL mode on postgres, the
// applied migration version.
func GetSchemaStatus(db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	status := &SchemaStatus{
		Mode:        schemaMode(cfg),
		Environment: cfg.Env,
		Dialect:     db.Dialector.Name(),
	}
	if status.Mode != SchemaModeSQL || status.Dialect != "postgres" {
		return status, nil
	}

	version, dirty, err := MigrationVersion(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	status.Version = version
	status.Dirty = dirty
	return status, nil
}
