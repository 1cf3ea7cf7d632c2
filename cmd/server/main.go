package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuscare/backend/internal/config"
	"github.com/campuscare/backend/internal/db"
	"github.com/campuscare/backend/internal/logger"
	"github.com/campuscare/backend/internal/mail"
	"github.com/campuscare/backend/internal/metrics"
	"github.com/campuscare/backend/internal/middleware"
	"github.com/campuscare/backend/internal/routes"
	"github.com/campuscare/backend/internal/services"
	"github.com/campuscare/backend/internal/store"
	"github.com/campuscare/backend/internal/uploads"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
}

// newStatsCache returns a Redis-backed cache when REDIS_ADDR is set and
// reachable, and a no-op cache otherwise.
func newStatsCache(cfg config.RedisConfig) (services.StatsCache, func()) {
	if cfg.Addr == "" {
		return services.NoopStatsCache{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, stats caching disabled", map[string]interface{}{
			"addr":  cfg.Addr,
			"error": err.Error(),
		})
		client.Close()
		return services.NoopStatsCache{}, func() {}
	}

	logger.Info("Stats cache enabled", map[string]interface{}{"addr": cfg.Addr, "ttl": cfg.StatsTTL.String()})
	return services.NewRedisStatsCache(client, cfg.StatsTTL), func() { client.Close() }
}

// newImageStore prefers S3 when a bucket is configured. The returned
// directory is served under /uploads and is empty for S3.
func newImageStore(cfg config.UploadConfig) (uploads.Store, string, error) {
	if cfg.S3Bucket != "" {
		s3Store, err := uploads.NewS3Store(context.Background(), uploads.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, "", err
		}
		logger.Info("Storing uploads in S3", map[string]interface{}{"bucket": cfg.S3Bucket})
		return s3Store, "", nil
	}

	local, err := uploads.NewLocalStore(cfg.Dir, cfg.BaseURL)
	if err != nil {
		return nil, "", err
	}
	logger.Info("Storing uploads on local disk", map[string]interface{}{"dir": cfg.Dir})
	return local, cfg.Dir, nil
}

func newSender(cfg config.SMTPConfig) mail.Sender {
	if !cfg.Enabled() {
		logger.Warn("SMTP not configured, emails will only be logged", nil)
		return mail.LogSender{}
	}
	return mail.NewSMTPSender(cfg)
}

func main() {
	dotenv := config.LoadDotEnv()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	logger.Initialize(cfg.LogLevel, cfg.LogFile)
	if !dotenv {
		logger.Warn("No .env file found, using environment variables", nil)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", map[string]interface{}{"error": err.Error()})
	}
	st := store.NewGormStore(gormDB)

	statsCache, closeCache := newStatsCache(cfg.Redis)
	defer closeCache()

	images, uploadDir, err := newImageStore(cfg.Uploads)
	if err != nil {
		logger.Fatal("Failed to set up image storage", map[string]interface{}{"error": err.Error()})
	}

	notifier := services.NewNotifier(newSender(cfg.SMTP), cfg.Notify.Workers, cfg.Notify.QueueSize, cfg.SMTP.Timeout)
	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRate.RPS, cfg.LoginRate.Burst)
	defer loginLimiter.Stop()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.MaxMultipartMemory = uploads.MaxImageSize + 1<<20

	r.Use(middleware.RequestID())
	r.Use(middleware.CustomLoggerMiddleware())
	r.Use(metrics.Middleware())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(gin.Recovery())

	routes.SetupRoutes(r, routes.Dependencies{
		Auth:         services.NewAuthService(st, cfg.JWTSecret, cfg.JWTTTL),
		Users:        services.NewUserService(st, statsCache),
		Complaints:   services.NewComplaintService(st, notifier, images, statsCache),
		Health:       st,
		LoginLimiter: loginLimiter,
		UploadDir:    uploadDir,
		SecureCookie: cfg.Env == "production",
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting CampusCare backend server", map[string]interface{}{
		"port":     cfg.Port,
		"gin_mode": gin.Mode(),
		"env":      cfg.Env,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	logger.Info("Shutting down server gracefully...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// In-flight requests are done; deliver what they queued.
	notifier.Stop()

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Server exited gracefully", nil)
}
