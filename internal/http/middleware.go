package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	logEntryKey     = "log_entry"
)

// corsMiddleware grants CORS headers to the configured origin only. Requests from
// other origins are served without them instead of being rejected; the browser
// enforces the policy.
func corsMiddleware(origin string) gin.HandlerFunc {
	allowed := cors.New(cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})

	return func(c *gin.Context) {
		if requestOrigin := c.GetHeader("Origin"); requestOrigin != "" && requestOrigin != origin {
			c.Next()
			return
		}
		allowed(c)
	}
}

// requestLogger tags each request with an id and logs it once it completes.
func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		entry := logger.WithField("request_id", requestID)
		c.Set(logEntryKey, entry)

		c.Next()

		entry.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}).Info("request")
	}
}

func requestLog(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(logEntryKey); ok {
		if entry, ok := v.(logrus.FieldLogger); ok {
			return entry
		}
	}
	return logrus.StandardLogger()
}
