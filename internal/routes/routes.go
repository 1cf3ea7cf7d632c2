package routes

import (
	"github.com/campuscare/backend/internal/controllers"
	"github.com/campuscare/backend/internal/metrics"
	"github.com/campuscare/backend/internal/middleware"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// Dependencies are the services the routes are served from.
type Dependencies struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Complaints *services.ComplaintService
	Health     controllers.Pinger

	// LoginLimiter throttles the public auth endpoints; nil disables it.
	LoginLimiter *middleware.IPRateLimiter
	// UploadDir is served under /uploads when set.
	UploadDir    string
	SecureCookie bool
}

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	authController := controllers.NewAuthController(deps.Auth, deps.Users, deps.SecureCookie)
	userController := controllers.NewUserController(deps.Users)
	complaintController := controllers.NewComplaintController(deps.Complaints)
	healthController := controllers.NewHealthController(deps.Health)

	r.GET("/health", healthController.Health)
	r.GET("/metrics", metrics.Handler())
	if deps.UploadDir != "" {
		r.Static("/uploads", deps.UploadDir)
	}

	authenticated := middleware.AuthMiddleware(deps.Auth)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			public := auth.Group("")
			if deps.LoginLimiter != nil {
				public.Use(deps.LoginLimiter.Middleware())
			}
			public.POST("/register/student", authController.RegisterStudent)
			public.POST("/login/:role", authController.Login)

			auth.POST("/logout", authController.Logout)
			auth.GET("/me", authenticated, authController.Me)
			auth.POST("/register", authenticated, adminOnly, authController.Register)
		}

		complaints := api.Group("/complaints")
		complaints.Use(authenticated)
		{
			complaints.POST("", middleware.RequireRole(models.RoleStudent), complaintController.CreateComplaint)
			complaints.GET("", adminOnly, complaintController.GetComplaints)
			complaints.GET("/student", middleware.RequireRole(models.RoleStudent), complaintController.GetStudentComplaints)
			complaints.GET("/department", middleware.RequireRole(models.RoleDepartment), complaintController.GetDepartmentComplaints)
			complaints.GET("/public", complaintController.GetPublicComplaints)
			complaints.GET("/stats", adminOnly, complaintController.GetStats)
			complaints.GET("/:id", complaintController.GetComplaint)
			complaints.PUT("/:id", complaintController.UpdateComplaint)
			complaints.DELETE("/:id", complaintController.DeleteComplaint)
			complaints.POST("/:id/upvote", complaintController.ToggleUpvote)
		}

		users := api.Group("/users")
		users.Use(authenticated, adminOnly)
		{
			users.GET("", userController.GetUsers)
			users.DELETE("/:id", userController.DeleteUser)
		}
	}
}
