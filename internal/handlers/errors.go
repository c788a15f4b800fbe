package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"scandium/internal/middleware"
)

var errEmptyBody = errors.New("request body is required")

// respondError records err on the context and writes the standard error body
func respondError(c *gin.Context, status int, title string, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, middleware.ErrorResponse{
		Error:     title,
		Message:   err.Error(),
		RequestID: c.GetString(middleware.RequestIDKey),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
