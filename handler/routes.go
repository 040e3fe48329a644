package handler

import (
	"net/http"
	"time"

	"github.com/AnTengye/jobtracker/config"
	"github.com/AnTengye/jobtracker/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterAPI mounts the REST routes on api, which is expected at /api.
func RegisterAPI(api *gin.RouterGroup, authHandler *AuthHandler, appHandler *ApplicationHandler, authCfg *config.AuthConfig) {
	api.GET("/health", Health)

	// Public routes
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(authCfg))
	{
		protected.GET("/me", authHandler.GetCurrentUser)
		protected.GET("/applications", appHandler.List)
		protected.POST("/applications", appHandler.Create)
		protected.GET("/applications/:id", appHandler.Get)
		protected.PUT("/applications/:id", appHandler.Update)
		protected.DELETE("/applications/:id", appHandler.Delete)
		protected.PATCH("/applications/:id/status", appHandler.UpdateStatus)
		protected.GET("/uploads/:filename", appHandler.Download)
		protected.GET("/stats", appHandler.Stats)
	}
}

// Health reports liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound is the JSON fallback for unknown API routes
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": "Endpoint not found"})
}
