package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/db"
	"github.com/campuscare/backend/internal/logger"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/services"
	"github.com/campuscare/backend/internal/store"
)

// UserData represents the structure of users in the JSON file
type UserData struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// JSONData represents the structure of the JSON files
type JSONData struct {
	Users []UserData `json:"users"`
}

func main() {
	path := flag.String("file", "data/initial-users.json", "users seed file")
	flag.Parse()

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
	if err := db.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", map[string]interface{}{"error": err.Error()})
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		logger.Fatal("Failed to read users file", map[string]interface{}{"file": *path, "error": err.Error()})
	}

	created, skipped, err := seedUsers(context.Background(), store.NewGormStore(gormDB), data)
	if err != nil {
		logger.Fatal("Seeding failed", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Database seeding completed", map[string]interface{}{
		"created": created,
		"skipped": skipped,
	})
}

// seedUsers creates the users listed in data. Existing emails are skipped,
// and invalid entries are logged and skipped.
func seedUsers(ctx context.Context, users store.UserStore, data []byte) (created, skipped int, err error) {
	var jsonData JSONData
	if err := json.Unmarshal(data, &jsonData); err != nil {
		return 0, 0, fmt.Errorf("invalid users file: %w", err)
	}

	for _, userData := range jsonData.Users {
		email := strings.ToLower(strings.TrimSpace(userData.Email))
		log := logger.WithContext(map[string]interface{}{"email": email, "component": "seed"})

		role, err := models.ParseRole(userData.Role)
		if err != nil {
			log.WithField("error", err.Error()).Warn("Skipping user with unknown role")
			skipped++
			continue
		}
		if role == models.RoleDepartment && strings.TrimSpace(userData.Department) == "" {
			log.Warn("Skipping department user without a department")
			skipped++
			continue
		}

		hashedPassword, err := services.HashPassword(userData.Password)
		if err != nil {
			return created, skipped, err
		}

		user := &models.User{Email: email, Password: hashedPassword, Role: role}
		if role == models.RoleDepartment {
			department := strings.TrimSpace(userData.Department)
			user.Department = &department
		}

		if err := users.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				log.Info("User already exists")
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("failed to create %s: %w", email, err)
		}
		log.WithField("role", role).Info("Created user")
		created++
	}
	return created, skipped, nil
}
