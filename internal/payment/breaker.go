package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the provider is considered down.
var ErrCircuitOpen = errors.New("payment provider temporarily unavailable")

type breakerProvider struct {
	Provider
	cb *gobreaker.CircuitBreaker[*Order]
}

// WithBreaker trips after five consecutive transport or 5xx failures and
// probes again after 30s. Requests rejected by the provider with a 4xx do
// not count as failures.
func WithBreaker(p Provider, lg *zap.Logger) Provider {
	cb := gobreaker.NewCircuitBreaker[*Order](gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var pe *Error
			return err == nil || (errors.As(err, &pe) && pe.ClientError())
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn("Payment circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &breakerProvider{Provider: p, cb: cb}
}

func (b *breakerProvider) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	order, err := b.cb.Execute(func() (*Order, error) {
		return b.Provider.CreateOrder(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return order, err
}
