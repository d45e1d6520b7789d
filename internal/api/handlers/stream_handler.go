package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cyberguard/backend/internal/broadcast"
)

// StreamHandler upgrades dashboard connections to the live traffic feed.
func StreamHandler(observer *broadcast.WebSocketObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		observer.ServeHTTP(c.Writer, c.Request)
	}
}
