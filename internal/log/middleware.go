package log

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
)

type loggerKey struct{}

// Middleware stores logger in the request context
func Middleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), loggerKey{}, logger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ComponentMiddleware tags the request logger with component
func ComponentMiddleware(component string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := FromContext(c.Request.Context()).WithComponent(component)
		ctx := context.WithValue(c.Request.Context(), loggerKey{}, logger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}
