package controllers

import (
	"net/http"

	"github.com/campuscare/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

func (uc *UserController) GetUsers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	users, err := uc.users.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
	})
}

func (uc *UserController) DeleteUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := uc.users.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}
