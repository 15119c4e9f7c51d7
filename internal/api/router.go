package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/realtyhub/messaging/internal/database"
	"github.com/realtyhub/messaging/internal/messaging"
	"github.com/realtyhub/messaging/internal/websocket"
)

const healthTimeout = 2 * time.Second

// Health reports whether the store answers a ping
func Health(db database.DBInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Warn("Health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// RegisterRoutes mounts the public, authenticated and websocket routes.
// ws may be nil, in which case no push notifications are sent and /api/ws is not served.
func RegisterRoutes(router *gin.Engine, db database.DBInterface, ws *websocket.Manager) {
	authHandler := NewAuthHandler(db)
	listingHandler := NewListingHandler(db)

	var notifier Notifier
	if ws != nil {
		notifier = ws
	}
	messageHandler := NewMessageHandler(messaging.NewService(db), notifier)

	router.GET("/health", Health(db))

	// Public routes
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	authorized := router.Group("/api")
	authorized.Use(AuthMiddleware())
	{
		authorized.GET("/auth/me", authHandler.GetMe)

		authorized.GET("/conversations", messageHandler.GetConversations)
		authorized.GET("/conversations/:userID/messages", messageHandler.GetMessages)
		authorized.POST("/conversations/:userID/messages", messageHandler.SendMessage)
		authorized.PUT("/conversations/:userID/read", messageHandler.MarkAsRead)

		authorized.POST("/listings", listingHandler.CreateListing)
		authorized.GET("/listings/:id", listingHandler.GetListing)
	}

	if ws != nil {
		router.GET("/api/ws", TokenAuthMiddleware(), ws.HandleWebSocket)
	}
}
