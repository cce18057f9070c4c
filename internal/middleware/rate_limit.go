package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"shopkart_back_end/internal/apperr"
)

type AttemptLimiter interface {
	Blocked(ctx context.Context, key string) (time.Duration, error)
	Fail(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// LoginRateLimit counts failed logins per email or username and rejects
// further attempts during the cooldown.
func LoginRateLimit(limiter AttemptLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var input struct {
			Email    string `json:"email"`
			Username string `json:"username"`
		}
		_ = json.Unmarshal(body, &input)
		key := strings.ToLower(strings.TrimSpace(input.Email))
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(input.Username))
		}
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		lg := zctx.From(ctx)
		remaining, err := limiter.Blocked(ctx, key)
		if err != nil {
			lg.Warn("Login limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if remaining > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			abort(c, apperr.RateLimited("Too many failed login attempts. Try again in %d minutes",
				int(math.Ceil(remaining.Minutes()))))
			return
		}

		c.Next()

		switch status := ResponseStatus(c); {
		case status == http.StatusUnauthorized:
			left, err := limiter.Fail(ctx, key)
			if err != nil {
				lg.Warn("Login limiter unavailable", zap.Error(err))
				return
			}
			c.Header("X-RateLimit-Remaining", fmt.Sprint(left))
		case status < http.StatusBadRequest:
			if err := limiter.Reset(ctx, key); err != nil {
				lg.Warn("Login limiter reset failed", zap.Error(err))
			}
		}
	}
}

// ResponseStatus is the status the request will be answered with, taking
// errors not yet rendered by ErrorHandler into account.
func ResponseStatus(c *gin.Context) int {
	if !c.Writer.Written() && len(c.Errors) > 0 {
		return apperr.From(c.Errors.Last().Err).Status
	}
	return c.Writer.Status()
}
