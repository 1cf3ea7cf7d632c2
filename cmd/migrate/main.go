package main

import (
	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/db"
	"github.com/campuscare/backend/internal/logger"
)

func main() {
	if !config.LoadDotEnv() {
		logger.Info("No .env file found, using system environment variables", nil)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	logger.Initialize(cfg.LogLevel, cfg.LogFile)

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Running database migrations...", nil)
	if err := db.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", map[string]interface{}{"error": err.Error()})
	}
}
