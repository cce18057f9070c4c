package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductFilter struct {
	Category *primitive.ObjectID
}

// CouponFilter with ActiveAt set keeps only active coupons that started
// before that instant.
type CouponFilter struct {
	ActiveAt *time.Time
}

type OrderFilter struct {
	Status   *OrderStatus
	Customer *primitive.ObjectID
}
