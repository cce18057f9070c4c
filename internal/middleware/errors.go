package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"shopkart_back_end/internal/apperr"
)

// ErrorHandler renders the last error attached to the context as the error
// envelope. Details of internal errors are only exposed outside production.
func ErrorHandler(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		e := apperr.From(err)

		lg := zctx.From(c.Request.Context())
		if e.Status >= http.StatusInternalServerError {
			lg.Error("Request failed", zap.Error(err), zap.Int("status", e.Status))
		} else {
			lg.Debug("Request rejected", zap.Error(err), zap.Int("status", e.Status))
		}

		if c.Writer.Written() {
			return
		}
		message := e.Message
		if e.Kind == apperr.ErrInternal && !production {
			message = err.Error()
		}
		fields := e.Errors
		if fields == nil {
			fields = []apperr.FieldError{}
		}
		c.JSON(e.Status, gin.H{
			"statusCode": e.Status,
			"message":    message,
			"errors":     fields,
			"success":    false,
			"data":       nil,
		})
	}
}
