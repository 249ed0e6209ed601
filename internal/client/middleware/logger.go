package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs requests that failed or were slow. Healthy traffic stays quiet
// so the daemon log remains readable.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		if status < http.StatusBadRequest && elapsed < time.Second {
			return
		}

		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"took", elapsed,
		}
		if err := c.Errors.Last(); err != nil {
			attrs = append(attrs, "error", err.Error())
		}

		if status >= http.StatusInternalServerError {
			slog.Error("control plane request", attrs...)
		} else {
			slog.Warn("control plane request", attrs...)
		}
	}
}
