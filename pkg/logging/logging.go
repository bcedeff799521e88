package logging

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	contextKey      = "logger"
	RequestIDHeader = "X-Request-ID"
)

// New builds a logger for the given level and format ("text" or "json")
func New(level, format string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}

	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Middleware logs each request and puts a request scoped entry in the context
func Middleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Set(contextKey, entry)

		c.Next()

		fields := logrus.Fields{
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client":    c.ClientIP(),
			"bytes_out": c.Writer.Size(),
		}
		if userID := c.GetString("userID"); userID != "" {
			fields["user"] = userID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		e := entry.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			e.Error("request failed")
		case status >= 400:
			e.Warn("request rejected")
		default:
			e.Info("request served")
		}
	}
}

// FromContext returns the request logger, or the standard logger outside a request
func FromContext(c *gin.Context) *logrus.Entry {
	if c != nil {
		if v, ok := c.Get(contextKey); ok {
			if entry, ok := v.(*logrus.Entry); ok {
				return entry
			}
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
