package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type LoginType string

const (
	LoginEmailPassword LoginType = "EMAIL_PASSWORD"
	LoginGoogle        LoginType = "GOOGLE"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderDelivered OrderStatus = "DELIVERED"
)

// ParseOrderStatus matches s case-insensitively against the known statuses.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case OrderPending, OrderCancelled, OrderDelivered:
		return st, true
	}
	return "", false
}

type PaymentProvider string

const (
	ProviderUnknown  PaymentProvider = "UNKNOWN"
	ProviderRazorpay PaymentProvider = "RAZORPAY"
	ProviderPaypal   PaymentProvider = "PAYPAL"
	ProviderStripe   PaymentProvider = "STRIPE"
)

type CouponType string

const CouponFlat CouponType = "FLAT"

const (
	MaxSubImageCount = 4

	// TemporaryTokenExpiry bounds email verification and password reset links.
	TemporaryTokenExpiry = 20 * time.Minute

	DefaultAvatar = "https://placehold.co/200x200"
)
