package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
	// Driver selects the database/sql driver: "pgx" (default) or "pq".
	Driver string
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the
// DB_* variables.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.Port != "" && s.From != ""
}

type NotifyConfig struct {
	Workers   int
	QueueSize int
}

type UploadConfig struct {
	Dir     string
	BaseURL string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3Prefix        string
	S3PublicBaseURL string
}

type RedisConfig struct {
	Addr     string
	Password string
	StatsTTL time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type Config struct {
	Env     string
	Port    string
	GinMode string

	Database DatabaseConfig

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins []string

	SMTP      SMTPConfig
	Notify    NotifyConfig
	Uploads   UploadConfig
	Redis     RedisConfig
	LoginRate RateLimitConfig

	LogLevel string
	LogFile  string
}

// LoadDotEnv loads .env into the process environment. A missing file is not
// an error; the returned bool reports whether one was read.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// FromEnv reads the configuration from the environment, applying defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:     getEnv("ENV", "development"),
		Port:    getEnv("PORT", "5001"),
		GinMode: os.Getenv("GIN_MODE"),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Driver:   getEnv("DB_DRIVER", "pgx"),
		},
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:8080")),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		},
		Uploads: UploadConfig{
			Dir:             getEnv("UPLOAD_DIR", "uploads"),
			BaseURL:         getEnv("UPLOAD_BASE_URL", "/uploads"),
			S3Bucket:        os.Getenv("S3_BUCKET"),
			S3Region:        getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:      os.Getenv("S3_ENDPOINT"),
			S3Prefix:        getEnv("S3_PREFIX", "complaints/"),
			S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
		LogFile:  os.Getenv("LOG_FILE"),
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SMTP.Timeout, err = getDuration("SMTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Redis.StatsTTL, err = getDuration("STATS_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.Notify.Workers, err = getInt("NOTIFY_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.Notify.QueueSize, err = getInt("NOTIFY_QUEUE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.LoginRate.Burst, err = getInt("LOGIN_RATE_BURST", 10); err != nil {
		return nil, err
	}
	rps := getEnv("LOGIN_RATE_RPS", "1")
	if cfg.LoginRate.RPS, err = strconv.ParseFloat(rps, 64); err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_RPS %q: %w", rps, err)
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Database.DSN() == "" {
		errs = append(errs, errors.New("DATABASE_URL or DB_HOST is required"))
	}
	if c.Database.Driver != "pgx" && c.Database.Driver != "pq" {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be pgx or pq, got %q", c.Database.Driver))
	}
	if c.Notify.Workers < 1 {
		errs = append(errs, errors.New("NOTIFY_WORKERS must be at least 1"))
	}
	if c.Notify.QueueSize < 1 {
		errs = append(errs, errors.New("NOTIFY_QUEUE_SIZE must be at least 1"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
