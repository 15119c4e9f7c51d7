package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/realtyhub/messaging/internal/auth"
	"github.com/realtyhub/messaging/internal/logger"
	"github.com/realtyhub/messaging/internal/models"
)

// Context keys set by the auth middlewares
const (
	ctxUserID  = "userID"
	ctxProfile = "profile"
)

var log = logger.New("api")

// AuthMiddleware validates JWT tokens and sets user info in context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		if !authenticate(c, strings.TrimPrefix(authHeader, "Bearer ")) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// TokenAuthMiddleware accepts the token from the ?token= query parameter or
// the Authorization header. Browsers cannot set headers on websocket upgrades.
func TokenAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}

		if token == "" {
			log.Debug("No token on websocket request from %s", c.Request.RemoteAddr)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !authenticate(c, token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func authenticate(c *gin.Context, token string) bool {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return false
	}
	userID, err := auth.GetUserIDFromToken(claims)
	if err != nil {
		log.Warn("Token without user id from %s", c.Request.RemoteAddr)
		return false
	}

	c.Set(ctxUserID, userID)
	c.Set(ctxProfile, claims.Profile())
	return true
}

// callerProfile returns the authenticated caller as stamped on outgoing messages
func callerProfile(c *gin.Context) models.SenderProfile {
	if v, ok := c.Get(ctxProfile); ok {
		if profile, ok := v.(models.SenderProfile); ok {
			return profile
		}
	}
	return models.SenderProfile{ID: c.GetString(ctxUserID)}
}
