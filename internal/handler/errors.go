// internal/handler/errors.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leaflens/species-service/internal/classify"
)

// clientError maps pipeline errors the client caused to an HTTP status and
// a safe message. Anything unmapped is the server's fault.
func clientError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, classify.ErrEmptyInput):
		return http.StatusBadRequest, "image payload is empty", true

	case errors.Is(err, classify.ErrDecode):
		return http.StatusBadRequest, "image could not be decoded; supported formats: JPEG, PNG, GIF", true

	case errors.Is(err, classify.ErrUnsupportedFormat):
		return http.StatusBadRequest, "image format not supported", true

	default:
		return 0, "", false
	}
}

// writeError writes the error envelope every non-200 response uses.
func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
