package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Category    primitive.ObjectID `bson:"category" json:"category"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	MainImage   string             `bson:"mainImage" json:"mainImage"`
	SubImages   []SubImage         `bson:"subImages" json:"subImages"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type SubImage struct {
	ID  primitive.ObjectID `bson:"_id" json:"_id"`
	URL string             `bson:"url" json:"url"`
}
