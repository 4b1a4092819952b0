package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/plate"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/repository"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/service"
)

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}

// respondError maps service and repository errors onto HTTP statuses. input
// is the plate text the request carried, echoed back on validation failures.
func respondError(c *gin.Context, err error, input string) {
	switch {
	case plate.IsValidationError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     "invalid plate",
			"rejection": domain.NewPlateRejection(input, err),
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, repository.ErrDuplicateEntry),
		errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrEventAlreadyResolved):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, service.ErrLPRUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
	}
}
