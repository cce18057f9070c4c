package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"shopkart_back_end/internal/database"
	"shopkart_back_end/internal/models"
)

type ProfileRepository struct {
	coll *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{coll: db.Collection(database.ProfilesCollection)}
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err, "insert profile")
}

func (r *ProfileRepository) FindByOwner(ctx context.Context, owner primitive.ObjectID) (*models.Profile, error) {
	return findOne[models.Profile](ctx, r.coll, bson.M{"owner": owner}, "find profile")
}

func (r *ProfileRepository) Update(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"firstName":   p.FirstName,
		"lastName":    p.LastName,
		"countryCode": p.CountryCode,
		"phoneNumber": p.PhoneNumber,
		"updatedAt":   p.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"owner": p.Owner}, update)
	return matchOne(res, err, "update profile")
}

func (r *ProfileRepository) DeleteByOwner(ctx context.Context, owner primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, bson.M{"owner": owner}, "delete profile")
}
