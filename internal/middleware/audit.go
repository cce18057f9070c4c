package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopkart_back_end/internal/audit"
)

type AuditSink interface {
	Record(ctx context.Context, e audit.Entry) error
}

const auditTimeout = 10 * time.Second

// Audit records the outcome of every mutating request under action on
// resource. Entries are written in the background.
func Audit(sink AuditSink, lg *zap.Logger, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		e := audit.Entry{
			UserID:    c.GetString(KeyUserID),
			UserEmail: c.GetString(KeyEmail),
			Action:    action,
			Resource:  resource,
			Path:      c.Request.URL.Path,
			Status:    ResponseStatus(c),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: c.GetString(KeyRequestID),
			Timestamp: time.Now().UTC(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
			defer cancel()
			if err := sink.Record(ctx, e); err != nil {
				lg.Warn("Audit write failed", zap.String("action", e.Action), zap.Error(err))
			}
		}()
	}
}
