package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version is reported by /health.
const Version = "1.0.0"

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	dbStatus := gin.H{"status": "ok"}
	overallStatus := "ok"
	statusCode := http.StatusOK

	if err := hc.db.Ping(ctx); err != nil {
		dbStatus = gin.H{"status": "error", "error": err.Error()}
		overallStatus = "error"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"services": gin.H{
			"database": dbStatus,
		},
	})
}
