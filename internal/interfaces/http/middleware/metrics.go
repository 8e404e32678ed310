package middleware

import (
	"github.com/erp/ordertocash/internal/infrastructure/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency per matched route. Unmatched
// paths are collapsed into one label to keep cardinality bounded.
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		done := m.Begin()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		done(c.Request.Method, route, c.Writer.Status())
	}
}
