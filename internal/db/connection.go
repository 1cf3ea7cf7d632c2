package db

import (
	"context"
	"fmt"
	"time"

	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/logger"
	"github.com/campuscare/backend/internal/models"
	_ "github.com/lib/pq" // registers the "postgres" database/sql driver for DB_DRIVER=pq
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dialector picks the database/sql driver behind the gorm postgres dialect.
func Dialector(cfg config.DatabaseConfig) gorm.Dialector {
	pgCfg := postgres.Config{DSN: cfg.DSN()}
	if cfg.Driver == "pq" {
		pgCfg.DriverName = "postgres"
	}
	return postgres.New(pgCfg)
}

// Connect opens the connection pool and verifies it with a ping.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(Dialector(cfg), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connected successfully", map[string]interface{}{"driver": cfg.Driver})
	return db, nil
}

// AutoMigrate creates or updates the users, complaints and upvotes tables.
func AutoMigrate(db *gorm.DB) error {
	for _, model := range []interface{}{&models.User{}, &models.Complaint{}, &models.Upvote{}} {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration of %T failed: %w", model, err)
		}
	}
	logger.Info("Database migrations completed", nil)
	return nil
}
