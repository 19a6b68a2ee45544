package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type MaintenanceFlag interface {
	MaintenanceMode() bool
}

// Maintenance turns away everyone but staff while maintenance mode is on.
// Mounted after Auth it checks the current user; without one the request is
// rejected outright.
func Maintenance(flag MaintenanceFlag) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !flag.MaintenanceMode() {
			c.Next()
			return
		}
		if user, ok := CurrentUser(c); ok && user.Role.Staff() {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "maintenance_mode"})
	}
}
