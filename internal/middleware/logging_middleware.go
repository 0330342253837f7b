// internal/middleware/logging_middleware.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"link-service/internal/utils"
)

// LoggingMiddleware logs every request once it has been served
func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path
		c.Next()

		logger.LogAPIRequest(
			c.Request.Method,
			path,
			c.GetString(utils.RequestIDKey),
			c.ClientIP(),
			c.Writer.Status(),
			time.Since(startTime),
		)
	}
}
