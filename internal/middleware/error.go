package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/carelink/telehealth-api/pkg/errors"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler logs every error attached to the context with the request
// id. Handlers normally respond themselves (httputil attaches the error
// when it responds); if a handler attached an error without writing a
// response, this middleware answers as a safety net. Application errors
// keep their own message; anything else gets a generic body so internals
// never reach the caller.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		lastErr := c.Errors.Last()

		status := http.StatusInternalServerError
		message := "Internal server error"
		if appErr, ok := apperrors.AsAppError(lastErr.Err); ok {
			status = appErr.StatusCode()
			message = appErr.Message
		}

		evt := log.Error()
		if status < http.StatusInternalServerError {
			evt = log.Warn()
		}
		evt.
			Err(lastErr.Err).
			Int("status", status).
			Str("request_id", requestID).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Str("client_ip", c.ClientIP()).
			Msg("request failed")

		if c.Writer.Written() {
			return
		}

		c.JSON(status, ErrorResponse{
			Code:    status,
			Message: message,
			TraceID: requestID,
		})
	}
}
