package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-ranker/internal/shared/telemetry"
)

// Logging emits a structured log per request. Handlers may set
// "resumeId" on the context to tag the line.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if id := StudentIDFromContext(c); id != "" {
			fields["student_id"] = id
		}
		if id := c.GetString("resumeId"); id != "" {
			fields["resume_id"] = id
		}
		telemetry.Info("request.complete", fields)
	}
}
