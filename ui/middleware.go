package ui

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request identifier
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(s.requestLogger())
}

// RequestID reuses an incoming X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("[API] %s %s %d %s id=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.GetString(requestIDKey))
	}
}
