package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/AnTengye/jobtracker/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 with the request id in the payload.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(c)

				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"message":    "Internal server error",
					"request_id": requestID,
				})
			}
		}()

		c.Next()
	}
}
