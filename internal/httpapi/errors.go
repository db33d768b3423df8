package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// respondError maps a model error kind to an HTTP status code and
// writes the JSON error body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrInvalid):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, model.ErrAuthFailure):
		status = http.StatusUnauthorized
	case errors.Is(err, model.ErrTransient):
		status = http.StatusBadGateway
	case errors.Is(err, model.ErrFatal):
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
