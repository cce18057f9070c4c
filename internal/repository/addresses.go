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

type AddressRepository struct {
	coll *mongo.Collection
}

func NewAddressRepository(db *mongo.Database) *AddressRepository {
	return &AddressRepository{coll: db.Collection(database.AddressesCollection)}
}

func owned(id, owner primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "owner": owner}
}

func (r *AddressRepository) Create(ctx context.Context, a *models.Address) error {
	stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, a)
	return translate(err, "insert address")
}

func (r *AddressRepository) FindOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.Address, error) {
	return findOne[models.Address](ctx, r.coll, owned(id, owner), "find address")
}

func (r *AddressRepository) List(ctx context.Context, owner primitive.ObjectID, q models.PageQuery) (models.Page[models.Address], error) {
	return paginate[models.Address](ctx, r.coll, bson.M{"owner": owner}, q, "list addresses")
}

func (r *AddressRepository) Update(ctx context.Context, a *models.Address) error {
	a.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"addressLine1": a.AddressLine1,
		"addressLine2": a.AddressLine2,
		"city":         a.City,
		"country":      a.Country,
		"pincode":      a.Pincode,
		"state":        a.State,
		"updatedAt":    a.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, owned(a.ID, a.Owner), update)
	return matchOne(res, err, "update address")
}

func (r *AddressRepository) DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, owned(id, owner), "delete address")
}
