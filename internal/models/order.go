package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Order struct {
	ID                   primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	OrderPrice           float64             `bson:"orderPrice" json:"orderPrice"`
	DiscountedOrderPrice float64             `bson:"discountedOrderPrice" json:"discountedOrderPrice"`
	Coupon               *primitive.ObjectID `bson:"coupon" json:"coupon"`
	Customer             primitive.ObjectID  `bson:"customer" json:"customer"`
	Items                []OrderItem         `bson:"items" json:"items"`
	Address              OrderAddress        `bson:"address" json:"address"`
	Status               OrderStatus         `bson:"status" json:"status"`
	PaymentProvider      PaymentProvider     `bson:"paymentProvider" json:"paymentProvider"`
	PaymentID            string              `bson:"paymentId" json:"paymentId"`
	IsPaymentDone        bool                `bson:"isPaymentDone" json:"isPaymentDone"`
	StockDecremented     bool                `bson:"stockDecremented" json:"-"`
	CreatedAt            time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time           `bson:"updatedAt" json:"updatedAt"`
}

type OrderItem struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

type OrderCustomer struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
}

type OrderCoupon struct {
	ID         primitive.ObjectID `json:"_id"`
	Name       string             `json:"name"`
	CouponCode string             `json:"couponCode"`
}

// OrderItemView joins an order line with the live product, nil when deleted.
type OrderItemView struct {
	ID       primitive.ObjectID `json:"_id"`
	Product  *Product           `json:"product"`
	Quantity int                `json:"quantity"`
}

// OrderView is an order enriched for reads. Its Customer, Coupon and Items
// shadow the raw references of the embedded Order.
type OrderView struct {
	Order
	Customer        *OrderCustomer  `json:"customer"`
	Coupon          *OrderCoupon    `json:"coupon"`
	Items           []OrderItemView `json:"items,omitempty"`
	TotalOrderItems *int            `json:"totalOrderItems,omitempty"`
}
