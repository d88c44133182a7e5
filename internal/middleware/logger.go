// Package middleware provides HTTP middleware for the webhook server.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger returns a middleware that logs every HTTP request. Webhook delivery
// headers are included when present so a delivery can be correlated with the
// redelivery view in the GitHub app settings.
func Logger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		fields := []interface{}{
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", path,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		if event := c.Request.Header.Get("X-GitHub-Event"); event != "" {
			fields = append(fields, "event", event)
		}
		if delivery := c.Request.Header.Get("X-GitHub-Delivery"); delivery != "" {
			fields = append(fields, "delivery", delivery)
		}
		if raw != "" {
			fields = append(fields, "query", raw)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			logger.Errorw("HTTP request", fields...)
		case status >= 400:
			logger.Warnw("HTTP request", fields...)
		default:
			logger.Infow("HTTP request", fields...)
		}
	}
}
