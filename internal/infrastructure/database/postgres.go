package database

import (
	"fmt"

	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/you/marketauth/internal/infrastructure/repositories"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a new postgres connection
func Open(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	return gorm.Open(postgres.Open(dsn), config)
}

// Models lists every table owned by the service
func Models() []interface{} {
	return []interface{}{
		&repositories.DBUser{},
		&repositories.DBTempUser{},
		&repositories.DBRoleProfile{},
		&repositories.DBProfileArchive{},
	}
}

// AutoMigrate creates the user, profile and casbin policy tables
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	// the adapter creates casbin_rule on construction
	if _, err := gormadapter.NewAdapterByDB(db); err != nil {
		return fmt.Errorf("failed to initialize Casbin GORM adapter: %w", err)
	}

	return nil
}
