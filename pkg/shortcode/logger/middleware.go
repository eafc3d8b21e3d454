package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID carries the request id in and out of the service
	HeaderRequestID = "X-Request-ID"
	// ContextKeyRequestID is the key for the request id in gin context
	ContextKeyRequestID = "request_id"
)

// RequestLogger assigns a request id and writes one log line per HTTP request.
// An incoming X-Request-ID header is reused.
func RequestLogger(log Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header(HeaderRequestID, reqID)

		c.Next()

		log.Info("http_request",
			String("method", c.Request.Method),
			String("path", c.Request.URL.Path),
			Int("status", c.Writer.Status()),
			Int("bytes", c.Writer.Size()),
			Duration("duration", time.Since(start)),
			String("remote_ip", c.ClientIP()),
			String("user_agent", c.Request.UserAgent()),
			String("request_id", reqID),
		)
	}
}

// Recovery turns a panic into a 500 response and logs it.
func Recovery(log Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		log.Error("panic recovered",
			String("path", c.Request.URL.Path),
			String("request_id", c.GetString(ContextKeyRequestID)),
			String("panic", stringify(recovered)),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case error:
		return x.Error()
	case string:
		return x
	default:
		return "unknown panic"
	}
}

// RequestID returns the request id assigned by RequestLogger, if any.
func RequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
