package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contentpilot/contentpilot-backend/internal/http/response"
	"github.com/contentpilot/contentpilot-backend/internal/observability"
)

// Metrics records per-route request counts and latency, plus the error code of
// every error envelope a handler wrote.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		m.InflightInc()
		defer m.InflightDec()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		m.ObserveAPI(c.Request.Method, route, c.Writer.Status(), time.Since(start))
		m.ObserveAPIError(route, c.GetString(response.ErrorCodeKey))
	}
}
