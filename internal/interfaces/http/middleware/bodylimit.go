package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadqual/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects oversized request bodies. Declared lengths fail fast
// with 413; chunked uploads are capped at read time via MaxBytesReader.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
