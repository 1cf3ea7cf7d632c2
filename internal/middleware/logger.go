package middleware

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or generates one, and echoes it
// on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// CustomLoggerMiddleware logs one line per request in simple text format
func CustomLoggerMiddleware() gin.HandlerFunc {
	return loggerTo(os.Stdout)
}

func loggerTo(out io.Writer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		userID := uint(0)
		if actor, ok := ActorFrom(c); ok {
			userID = actor.ID
		}

		fmt.Fprintf(out, "[API] %s | %s | %d | %s | %s | User: %d | Req: %s\n",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			latency.String(),
			c.ClientIP(),
			userID,
			c.GetString("request_id"),
		)
	}
}
