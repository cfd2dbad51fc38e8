package ui

import (
	"ga4dash/internal/errors"

	"github.com/gin-gonic/gin"
)

// respondError answers with the status implied by the error code
func (s *Server) respondError(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	status := errors.HTTPStatus(appErr.Code)
	if status >= 500 {
		s.logger.Error("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		s.logger.Debug("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      appErr.Error(),
		"code":       appErr.Code,
		"request_id": c.GetString(requestIDKey),
	})
}
