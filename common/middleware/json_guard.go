package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONBodyGuard rejects write requests whose body is not well-formed JSON
// before they reach a handler. Bodies larger than maxBytes are refused with
// 413. The body is restored so handlers can bind it again.
func JSONBodyGuard(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}
		if c.Request.Body == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abortWithError(c, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			abortWithError(c, http.StatusBadRequest, "Unable to read request body")
			return
		}

		if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
			abortWithError(c, http.StatusBadRequest, "Malformed JSON in request body")
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
