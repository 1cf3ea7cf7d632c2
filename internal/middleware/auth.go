package middleware

import (
	"net/http"
	"strings"

	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/policy"
	"github.com/gin-gonic/gin"
)

const (
	actorKey = "actor"
	// TokenCookie is the HttpOnly cookie set at login.
	TokenCookie = "token"
)

// TokenParser verifies a token and returns the actor it identifies.
type TokenParser interface {
	ParseToken(token string) (policy.Actor, error)
}

func tokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware requires a valid bearer token or token cookie and stores the
// actor in the context.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentication required",
			})
			c.Abort()
			return
		}

		actor, err := tokens.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid token",
			})
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireRole rejects actors whose role is not listed. It must run after
// AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentication required",
			})
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Access denied",
		})
		c.Abort()
	}
}

// ActorFrom returns the authenticated actor, if any.
func ActorFrom(c *gin.Context) (policy.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	return actor, ok
}
