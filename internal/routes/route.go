package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rendez/internal/container"
	"github.com/joshua-takyi/rendez/internal/handlers"
	"github.com/joshua-takyi/rendez/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":      "OK",
				"service":     "rendez-api",
				"store":       container.Config.StoreBackend,
				"connections": container.Hub.ConnectionCount(),
			})
		})

		// public routes
		v1.POST("/signup", handlers.Signup(container.AccountService, container.Cookies))
		v1.POST("/login", handlers.Login(container.AccountService, container.Cookies))
		v1.POST("/refresh", handlers.Refresh(container.AccountService, container.Cookies))
		v1.POST("/logout", handlers.Logout(container.Cookies))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Tokens, container.AccountService, container.Cookies, container.Logger))

	profileRoutes := protected.Group("/profile")
	{
		profileRoutes.GET("", handlers.GetProfile(container.ProfileService))
		profileRoutes.PUT("", handlers.UpdateProfile(container.ProfileService))
		profileRoutes.PUT("/location", handlers.UpdateLocation(container.ProfileService))
		profileRoutes.POST("/photos", handlers.AddPhoto(container.ProfileService))
		profileRoutes.DELETE("/photos", handlers.RemovePhoto(container.ProfileService))
	}

	protected.GET("/discover", handlers.DiscoverCandidates(container.DiscoveryService))

	likeRoutes := protected.Group("/likes")
	{
		likeRoutes.POST("", handlers.LikeProfile(container.MatchService))
		likeRoutes.GET("", handlers.ListLiked(container.ProfileService))
		likeRoutes.DELETE("/:id", handlers.UnlikeProfile(container.MatchService))
	}

	matchRoutes := protected.Group("/matches")
	{
		matchRoutes.GET("", handlers.ListMatches(container.MatchService))
		matchRoutes.GET("/:id", handlers.GetMatch(container.MatchService))
		matchRoutes.DELETE("/:id", handlers.Unmatch(container.MatchService))
		matchRoutes.POST("/:id/interactions", handlers.TouchMatch(container.MatchService))
	}

	protected.GET("/ws", handlers.Connect(
		container.Hub,
		container.ProfileService,
		container.MatchService,
		container.Config.AllowedOrigins,
		container.Logger,
	))

	return r
}
