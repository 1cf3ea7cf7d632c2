package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/campuscare/backend/internal/logger"
	"github.com/campuscare/backend/internal/middleware"
	"github.com/campuscare/backend/internal/policy"
	"github.com/campuscare/backend/internal/services"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrSelfDelete),
		errors.Is(err, services.ErrLastAdmin):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error response for a service error. Unexpected
// errors are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithError(err, "controller").WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		message = "Internal server error"
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
	})
}

// currentActor returns the authenticated actor or writes a 401.
func currentActor(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Authentication required",
		})
		return policy.Actor{}, false
	}
	return actor, true
}

// idParam parses the :id path parameter or writes a 400.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid id")
		return 0, false
	}
	return uint(id), true
}
