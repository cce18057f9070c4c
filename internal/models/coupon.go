package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Coupon struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name             string             `bson:"name" json:"name"`
	CouponCode       string             `bson:"couponCode" json:"couponCode"`
	Type             CouponType         `bson:"type" json:"type"`
	DiscountValue    float64            `bson:"discountValue" json:"discountValue"`
	MinimumCartValue float64            `bson:"minimumCartValue" json:"minimumCartValue"`
	StartDate        time.Time          `bson:"startDate" json:"startDate"`
	ExpiryDate       time.Time          `bson:"expiryDate" json:"expiryDate"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	Owner            primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ApplicableAt reports whether the coupon is active and inside its date window.
func (c *Coupon) ApplicableAt(now time.Time) bool {
	return c.IsActive && c.StartDate.Before(now) && c.ExpiryDate.After(now)
}

func (c *Coupon) StatusMessage() string {
	if c.IsActive {
		return "Coupon is active"
	}
	return "Coupon is inactive"
}
