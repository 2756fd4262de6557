package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"socialgram/handlers"
	"socialgram/middleware"
)

// Setup wires every route. Auth is the JWT middleware guarding the protected
// group; register and login sit outside it behind a per-IP rate limit.
func Setup(h *handlers.Handler, auth gin.HandlerFunc) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	authLimiter := middleware.NewIPRateLimiter(10, time.Minute)

	api := r.Group("/api")
	{
		api.POST("/users/register", middleware.RateLimit(authLimiter), h.Register)
		api.POST("/users/login", middleware.RateLimit(authLimiter), h.Login)
		api.GET("/vapid-public-key", h.VapidPublicKey)

		protected := api.Group("")
		protected.Use(auth)
		{
			protected.GET("/users/verify", h.Verify)
			protected.PUT("/users/profile", h.UpdateProfile)
			protected.GET("/users/:id", h.GetProfile)
			protected.POST("/users/:id/follow", h.ToggleFollow)
			protected.GET("/users/:id/posts", h.GetUserPosts)

			protected.POST("/posts", h.CreatePost)
			protected.GET("/posts", h.GetPosts)
			protected.GET("/posts/:id", h.GetPost)
			protected.POST("/posts/:id/like", h.ToggleLike)
			protected.POST("/posts/:id/save", h.ToggleSave)

			protected.POST("/comments/:id", h.CreateComment)
			protected.GET("/comments/:id", h.GetComments)

			protected.GET("/notifications", h.GetNotifications)
			protected.PUT("/notifications/read-all", h.MarkAllNotificationsRead)
			protected.PUT("/notifications/:id/read", h.MarkNotificationRead)
			protected.DELETE("/notifications/:id", h.DeleteNotification)

			protected.GET("/google/auth-url", h.DriveAuthURL)
			protected.POST("/google/callback", h.DriveCallback)
			protected.GET("/google/status", h.DriveStatus)
			protected.POST("/google/disconnect", h.DriveDisconnect)
			protected.POST("/upload", h.UploadMedia)

			protected.POST("/subscribe", h.SubscribePush)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return r
}
