package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-client/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router gin.IRouter, emitter *telemetry.AuditEmitter, sessions SessionView, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		userID := ""
		if sessions != nil {
			userID = sessions.UserID()
		}
		emitter.Emit(c.Request.Context(), "audit_test", "INFO", "audit test", requestIDFromContext(c), userID)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
