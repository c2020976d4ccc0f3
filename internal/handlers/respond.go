package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autocredit/cartera-api/internal/services"
)

// respondError maps service errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  ve.Error(),
			"fields": ve.Fields,
		})
		return
	}

	if services.IsInfrastructure(err) {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "servicio no disponible, intente de nuevo"})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrDuplicate),
		errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
	}
}

// pagination builds the standard pagination envelope
func pagination(page, perPage int, total int64) gin.H {
	if perPage < 1 {
		perPage = 20
	}
	return gin.H{
		"page":        page,
		"per_page":    perPage,
		"total":       total,
		"total_pages": (total + int64(perPage) - 1) / int64(perPage),
	}
}
