// internal/middleware/recovery_middleware.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"link-service/internal/utils"
)

// RecoveryMiddleware turns a handler panic into a logged 500. Once a
// response has started, as on an upgraded link stream, it only aborts.
func RecoveryMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("link_id", c.Param("link_id")),
			zap.String("request_id", c.GetString(utils.RequestIDKey)),
			zap.Bool("response_started", c.Writer.Written()),
			zap.Stack("stacktrace"),
		)

		if c.Writer.Written() {
			c.Abort()
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
	})
}
