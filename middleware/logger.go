package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger ghi access log qua slog. Path /r/{token} bị cắt để token không lọt vào log.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", redactPath(c.Request.URL.Path),
			"status", status,
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.Error("request", attrs...)
		case status >= 400:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}

func redactPath(p string) string {
	if rest, ok := strings.CutPrefix(p, "/r/"); ok && len(rest) > 6 {
		return "/r/" + rest[:6] + "…"
	}
	return p
}
