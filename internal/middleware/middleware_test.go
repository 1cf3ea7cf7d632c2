package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/policy"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTokens map[string]policy.Actor

func (f fakeTokens) ParseToken(token string) (policy.Actor, error) {
	if a, ok := f[token]; ok {
		return a, nil
	}
	return policy.Actor{}, errors.New("bad token")
}

var tokens = fakeTokens{
	"student-token": {ID: 1, Role: models.RoleStudent},
	"admin-token":   {ID: 2, Role: models.RoleAdmin},
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID})
	})
	r.GET("/", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(tokens))

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{"no credentials", func(req *http.Request) {}, http.StatusUnauthorized},
		{"malformed header", func(req *http.Request) { req.Header.Set("Authorization", "Token student-token") }, http.StatusUnauthorized},
		{"bad token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer student-token") }, http.StatusOK},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "admin-token"}) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter(AuthMiddleware(tokens), RequireRole(models.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer student-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":2}`, w.Body.String())
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	r := newRouter(RequireRole(models.RoleAdmin))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(RequestID(), loggerTo(&buf), AuthMiddleware(tokens))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer student-token")
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "[API] GET | / | 200 |"), line)
	assert.Contains(t, line, "User: 1")
	assert.Contains(t, line, "Req: req-123")
}

func TestRequestID_Generated(t *testing.T) {
	r := newRouter(RequestID())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(0.001, 2)
	defer rl.Stop()
	r := newRouter(rl.Middleware())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other clients have their own bucket")
}
