package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger prints one line per request. Websocket upgrades are logged when the
// connection is accepted, not when it closes.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			log.Printf("[HTTP] request_id=%s method=%s path=%s upgrade=websocket ip=%s",
				GetRequestID(c), c.Request.Method, c.Request.URL.Path, c.ClientIP())
			c.Next()
			return
		}
		c.Next()

		line := "[HTTP] request_id=%s method=%s path=%s status=%d latency_ms=%.3f ip=%s user=%d"
		args := []any{
			GetRequestID(c),
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			float64(time.Since(start).Microseconds()) / 1000.0,
			c.ClientIP(),
			UserID(c),
		}
		if len(c.Errors) > 0 {
			line += " errors=%q"
			args = append(args, c.Errors.String())
		}
		log.Printf(line, args...)
	}
}
