package handlers

import (
	"net/http"

	apperrors "github.com/Vantorrr/influenta-backend/pkg/errors"
	"github.com/Vantorrr/influenta-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP responses. AppErrors keep
// their status and kind; anything else is an infrastructure failure
// and surfaces as a 500 rather than being hidden behind a default.
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		body := gin.H{"error": appErr.Message}
		if appErr.Kind != "" {
			body["kind"] = appErr.Kind
		}
		c.JSON(appErr.Code, body)
		return
	}

	logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled handler error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
