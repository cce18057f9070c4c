package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Cart struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Owner     primitive.ObjectID  `bson:"owner" json:"owner"`
	Items     []CartItem          `bson:"items" json:"items"`
	Coupon    *primitive.ObjectID `bson:"coupon" json:"coupon"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// PricedCart is a cart joined with live product prices and its coupon.
type PricedCart struct {
	ID              *primitive.ObjectID `json:"_id"`
	Items           []PricedCartItem    `json:"items"`
	Coupon          *Coupon             `json:"coupon"`
	CartTotal       float64             `json:"cartTotal"`
	DiscountedTotal float64             `json:"discountedTotal"`
}

// PricedCartItem carries a nil Product when the referenced product is gone.
type PricedCartItem struct {
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// EmptyPricedCart is reported for users without a cart or with no items.
func EmptyPricedCart() *PricedCart {
	return &PricedCart{Items: []PricedCartItem{}}
}

func (c *PricedCart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
