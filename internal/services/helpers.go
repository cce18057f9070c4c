package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/models"
)

// backgroundTimeout bounds side effects that outlive the request.
const backgroundTimeout = 30 * time.Second

// Async runs a side effect that must neither delay nor fail the request.
type Async func(task string, fn func(ctx context.Context) error)

// GoAsync runs tasks on their own goroutine and logs failures.
func GoAsync(lg *zap.Logger) Async {
	return func(task string, fn func(ctx context.Context) error) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
			defer cancel()
			if err := fn(ctx); err != nil {
				lg.Warn("Background task failed", zap.String("task", task), zap.Error(err))
			}
		}()
	}
}

// notFound maps a store miss to a 404 with message and passes other errors
// through.
func notFound(err error, message string) error {
	if errors.Is(err, models.ErrNotFound) {
		return apperr.NotFound("%s", message)
	}
	return err
}
