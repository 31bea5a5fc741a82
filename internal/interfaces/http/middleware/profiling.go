package middleware

import (
	"context"

	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling labels every routed request's CPU samples with its route pattern,
// method and resource. Unrouted requests and /health are left unlabelled.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || route == "/health" {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), telemetry.HTTPRequestLabels(route, c.Request.Method), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
