// Package apperr defines the error taxonomy surfaced by the HTTP API.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// Kinds. Match with errors.Is against any *Error.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInternal            = errors.New("internal error")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidRange        = errors.New("invalid range")
	ErrInvalidCoupon       = errors.New("invalid coupon")
	ErrBelowMinimum        = errors.New("below minimum cart value")
	ErrEmptyCart           = errors.New("empty cart")
	ErrPaymentProvider     = errors.New("payment provider error")
	ErrPaymentVerification = errors.New("payment verification failed")
	ErrUnavailable         = errors.New("unavailable")
	ErrRateLimited         = errors.New("rate limited")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    error
	Status  int
	Message string
	Errors  []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, status int, format string, args ...any) *Error {
	return &Error{Kind: kind, Status: status, Message: fmt.Sprintf(format, args...)}
}

func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: ErrValidation, Status: http.StatusBadRequest, Message: message, Errors: fields}
}

func NotFound(format string, args ...any) *Error {
	return New(ErrNotFound, http.StatusNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(ErrConflict, http.StatusConflict, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(ErrUnauthorized, http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(ErrForbidden, http.StatusForbidden, format, args...)
}

func InvalidQuantity(format string, args ...any) *Error {
	return New(ErrInvalidQuantity, http.StatusBadRequest, format, args...)
}

func InvalidRange(format string, args ...any) *Error {
	return New(ErrInvalidRange, http.StatusBadRequest, format, args...)
}

func InvalidCoupon(format string, args ...any) *Error {
	return New(ErrInvalidCoupon, http.StatusBadRequest, format, args...)
}

func BelowMinimum(format string, args ...any) *Error {
	return New(ErrBelowMinimum, http.StatusBadRequest, format, args...)
}

func EmptyCart(format string, args ...any) *Error {
	return New(ErrEmptyCart, http.StatusBadRequest, format, args...)
}

func PaymentVerificationFailed(format string, args ...any) *Error {
	return New(ErrPaymentVerification, http.StatusBadRequest, format, args...)
}

func RateLimited(format string, args ...any) *Error {
	return New(ErrRateLimited, http.StatusTooManyRequests, format, args...)
}

func Unavailable(format string, args ...any) *Error {
	return New(ErrUnavailable, http.StatusServiceUnavailable, format, args...)
}

// PaymentProvider keeps a 4xx reported by the provider and maps anything
// else to 502.
func PaymentProvider(status int, format string, args ...any) *Error {
	if status < 400 || status >= 500 {
		status = http.StatusBadGateway
	}
	return New(ErrPaymentProvider, status, format, args...)
}

// From normalizes any error to an *Error. Unknown errors become 500s.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: ErrInternal, Status: http.StatusInternalServerError, Message: "Something went wrong"}
}
