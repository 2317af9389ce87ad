// Package middleware holds the Gin middlewares.
package middleware

import (
	"time"

	"domain-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one structured line per request. Bodies are never
// logged here; query content stays out of the logs by default.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestSize", c.Request.ContentLength,
			"responseSize", c.Writer.Size(),
		)
	}
}
