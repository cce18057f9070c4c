package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Address struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner        primitive.ObjectID `bson:"owner" json:"owner"`
	AddressLine1 string             `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string             `bson:"addressLine2" json:"addressLine2"`
	City         string             `bson:"city" json:"city"`
	Country      string             `bson:"country" json:"country"`
	Pincode      string             `bson:"pincode" json:"pincode"`
	State        string             `bson:"state" json:"state"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderAddress is the copy of an address kept on an order.
type OrderAddress struct {
	AddressLine1 string `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string `bson:"addressLine2" json:"addressLine2"`
	City         string `bson:"city" json:"city"`
	Country      string `bson:"country" json:"country"`
	Pincode      string `bson:"pincode" json:"pincode"`
	State        string `bson:"state" json:"state"`
}

func (a Address) Snapshot() OrderAddress {
	return OrderAddress{
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		Country:      a.Country,
		Pincode:      a.Pincode,
		State:        a.State,
	}
}
