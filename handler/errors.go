package handler

import (
	"errors"
	"net/http"

	"github.com/AnTengye/jobtracker/middleware"
	"github.com/AnTengye/jobtracker/pkg/apperr"
	"github.com/AnTengye/jobtracker/pkg/logger"
	"github.com/gin-gonic/gin"
)

// respondError writes err as {"message": ...} with the status of its kind.
// Internal errors are logged with their stack and never leak details.
func respondError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": middleware.TooLargeMessage(maxErr.Limit)})
		return
	}

	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		attrs := []any{"error", err, "path", c.Request.URL.Path}
		var appErr *apperr.Error
		if errors.As(err, &appErr) && len(appErr.Stack) > 0 {
			attrs = append(attrs, "stack", string(appErr.Stack))
		}
		logger.Error(c.Request.Context(), "request failed", attrs...)
	}

	c.JSON(status, gin.H{"message": apperr.PublicMessage(err)})
}
