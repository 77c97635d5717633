// Package handlers contains the HTTP handlers for the attendance API.
package handlers

import (
	"net/http"

	apperrors "church-attendance-backend/internal/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps a typed service error onto an HTTP status
func respondError(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperrors.IsAuthentication(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case apperrors.IsAuthorization(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperrors.IsTimeout(err):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case apperrors.IsStoreUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Store unavailable"})
	case err == apperrors.ErrUnknownDateKey:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err == apperrors.ErrInvalidPaginationParams:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
