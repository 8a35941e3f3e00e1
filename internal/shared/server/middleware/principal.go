package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const studentIDKey = "studentId"

// Principal records the caller's student id from X-Student-Id, if sent.
// Requests without the header are keyed by client IP downstream.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader("X-Student-Id")); id != "" {
			c.Set(studentIDKey, id)
		}
		c.Next()
	}
}

// StudentIDFromContext returns the id stored by Principal.
func StudentIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(studentIDKey)
}
