// Package payment creates provider-side orders for checkout.
package payment

import (
	"context"
	"fmt"
	"net/http"
)

type OrderRequest struct {
	Amount   int64 // minor units
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is the provider order handed back to the client to complete payment.
type Order struct {
	ID           string            `json:"id"`
	Entity       string            `json:"entity,omitempty"`
	Amount       int64             `json:"amount"`
	AmountPaid   int64             `json:"amount_paid"`
	AmountDue    int64             `json:"amount_due"`
	Currency     string            `json:"currency"`
	Receipt      string            `json:"receipt"`
	Status       string            `json:"status"`
	Attempts     int               `json:"attempts"`
	Notes        map[string]string `json:"notes,omitempty"`
	CreatedAt    int64             `json:"created_at"`
	ClientSecret string            `json:"client_secret,omitempty"`
}

type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

// Error is a failure reported by the provider.
type Error struct {
	StatusCode  int
	Code        string
	Reason      string
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment provider: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// ClientError reports whether the provider rejected the request itself.
func (e *Error) ClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}
