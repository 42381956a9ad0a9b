package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/storetrainer/internal/app/controllers"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/middleware"
)

// Controllers groups the handlers mounted under /api/v1
type Controllers struct {
	Auth       *controllers.AuthController
	Dashboard  *controllers.DashboardController
	Posts      *controllers.PostController
	Events     *controllers.EventController
	Simulation *controllers.SimulationController
	Practice   gin.HandlerFunc
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrl Controllers,
	authMiddleware *middleware.AuthMiddleware,
	metricsHandler http.Handler,
) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}
	v1.GET("/departments", ctrl.Dashboard.Departments)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", ctrl.Auth.Me)
		authenticated.PATCH("/auth/profile", ctrl.Auth.UpdateProfile)

		authenticated.GET("/dashboard", ctrl.Dashboard.Get)

		posts := authenticated.Group("/posts")
		{
			posts.GET("", ctrl.Posts.List)
			posts.POST("", ctrl.Posts.Create)
			posts.GET("/:id", ctrl.Posts.Get)
			posts.POST("/:id/reactions", ctrl.Posts.React)
			posts.PUT("/:id/adopt", authMiddleware.RoleRequired(string(models.RoleAdmin)), ctrl.Posts.SetAdopted)
		}

		events := authenticated.Group("/events")
		{
			events.GET("", ctrl.Events.List)
			events.GET("/participation", ctrl.Events.GetParticipation)
			events.PUT("/participation", ctrl.Events.SaveParticipation)
			events.GET("/:id", ctrl.Events.Get)
		}

		simulation := authenticated.Group("/simulation")
		{
			simulation.POST("/respond", ctrl.Simulation.Respond)
			simulation.POST("/evaluate", ctrl.Simulation.Evaluate)
			if ctrl.Practice != nil {
				simulation.GET("/ws", ctrl.Practice)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "RES_001", "message": "Route not found"}})
	})
}
