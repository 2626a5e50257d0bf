package middleware

import (
	"time"

	"github.com/dealerportal/backend/internal/infrastructure/metrics"
	"github.com/gin-gonic/gin"
)

// HTTPMetrics records every request by method, route template and status.
// Unmatched paths share one route label to keep cardinality bounded.
func HTTPMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.HTTPObserved(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
