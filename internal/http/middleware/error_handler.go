package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rajbabu19/phonepev2/internal/phonepe"
	"github.com/Rajbabu19/phonepev2/internal/shared/apperr"
)

// Fail records err on the context and stops the chain; ErrorHandler
// turns it into the response.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last context error once the chain has run.
// Gateway errors keep the upstream HTTP status and error code; app
// errors map through their kind. Handlers that already wrote a
// response are left alone.
func ErrorHandler(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		rid := GetRequestID(c)

		if pe, ok := phonepe.AsError(err); ok {
			status := pe.HTTPStatus
			if status == 0 {
				status = http.StatusInternalServerError
			}
			l.LogAttrs(c.Request.Context(), slog.LevelError, "gateway_error",
				slog.String("request_id", rid),
				slog.Int("status", status),
				slog.String("code", pe.Code),
				slog.String("message", pe.Message),
			)
			body := gin.H{"success": false, "message": pe.Message}
			if pe.Code != "" {
				body["code"] = pe.Code
			}
			c.AbortWithStatusJSON(status, body)
			return
		}

		status := apperr.HTTPStatus(err)
		l.LogAttrs(c.Request.Context(), slog.LevelError, "request_failed",
			slog.String("request_id", rid),
			slog.Int("status", status),
			slog.Any("err", err),
		)

		body := gin.H{"success": false, "message": apperr.PublicMessage(err)}
		if ae, ok := apperr.As(err); ok {
			if len(ae.Fields) > 0 {
				body["fields"] = ae.Fields
			}
			if ae.Kind == apperr.Internal && ae.Err != nil {
				body["error"] = ae.Err.Error()
			}
		}
		c.AbortWithStatusJSON(status, body)
	}
}
