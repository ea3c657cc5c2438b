package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/internal/apperror"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
)

// statusOf maps a service error onto its HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrInvalidToken),
		errors.Is(err, apperror.ErrActivationExpired):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// messageOf extracts the user-facing message from a service error
func messageOf(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Internal server error"
}

// abortWithError writes the error response and stops the chain.
// Unexpected errors are logged and collapsed into a bare 500.
func abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logging.GetLogger().Error("Unhandled API error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": messageOf(err)})
}
