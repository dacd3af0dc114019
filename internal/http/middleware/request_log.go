package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contentpilot/contentpilot-backend/internal/http/response"
	"github.com/contentpilot/contentpilot-backend/internal/platform/ctxutil"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

// RequestLogger writes one line per request. Plan item routes carry the day
// they touched and failed requests carry the envelope's error code.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		fields = append(fields, requestIdentity(c)...)
		if day := c.Param("day"); day != "" {
			fields = append(fields, "plan_day", day)
		}
		if code := c.GetString(response.ErrorCodeKey); code != "" {
			fields = append(fields, "error_code", code)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func requestIdentity(c *gin.Context) []interface{} {
	ctx := c.Request.Context()
	var out []interface{}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			out = append(out, "trace_id", td.TraceID)
		}
		if td.RequestID != "" {
			out = append(out, "request_id", td.RequestID)
		}
	}
	if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != "" {
		out = append(out, "user_id", rd.UserID)
	}
	return out
}
