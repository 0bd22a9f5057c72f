package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizreg/internal/registration"
)

// respondError maps service errors to status codes. Unexpected errors are
// logged and answered with fallback.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	var verr *registration.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"message": verr.Error(), "errors": verr.Problems})
	case errors.Is(err, registration.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"message": "A registration with these details already exists"})
	case errors.Is(err, registration.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Registration not found"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}
