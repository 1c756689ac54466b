package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wisesobriety/wisesober/utils"
)

// RequestLogger records each request to the structured log and the
// Prometheus collectors.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start).Seconds()

		utils.ReqCount.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		utils.ReqDuration.WithLabelValues(c.Request.Method, path).Observe(duration)

		if utils.Logger != nil {
			utils.Logger.Info("http_request",
				zap.String("method", c.Request.Method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Float64("duration", duration),
				zap.String("client_ip", c.ClientIP()),
			)
		}
	}
}
