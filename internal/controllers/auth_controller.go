package controllers

import (
	"net/http"
	"time"

	"github.com/campuscare/backend/internal/middleware"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	auth  *services.AuthService
	users *services.UserService
	// secureCookie marks the token cookie Secure outside development.
	secureCookie bool
}

func NewAuthController(auth *services.AuthService, users *services.UserService, secureCookie bool) *AuthController {
	return &AuthController{auth: auth, users: users, secureCookie: secureCookie}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type StudentRegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func (ac *AuthController) setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, maxAge, "/", "", ac.secureCookie, true)
}

// RegisterStudent is the public sign-up endpoint.
func (ac *AuthController) RegisterStudent(c *gin.Context) {
	var req StudentRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	user, err := ac.auth.RegisterStudent(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful",
		"user":    user,
	})
}

// Register creates an account of any role; admins only.
func (ac *AuthController) Register(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := ac.auth.RegisterUser(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"user":    user,
	})
}

// Login handles /auth/login/:role.
func (ac *AuthController) Login(c *gin.Context) {
	role, err := models.ParseRole(c.Param("role"))
	if err != nil {
		badRequest(c, "Unknown login role")
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	res, err := ac.auth.Login(c.Request.Context(), role, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	ac.setTokenCookie(c, res.Token, int(time.Until(res.ExpiresAt).Seconds()))
	c.JSON(http.StatusOK, AuthResponse{
		Success:   true,
		Message:   "Login successful",
		Token:     res.Token,
		User:      res.User,
		ExpiresAt: res.ExpiresAt,
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	ac.setTokenCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (ac *AuthController) Me(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	user, err := ac.users.Me(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}
