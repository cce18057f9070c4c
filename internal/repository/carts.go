package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopkart_back_end/internal/database"
	"shopkart_back_end/internal/models"
)

type CartRepository struct {
	coll *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{coll: db.Collection(database.CartsCollection)}
}

func byOwner(owner primitive.ObjectID) bson.M {
	return bson.M{"owner": owner}
}

func (r *CartRepository) FindByOwner(ctx context.Context, owner primitive.ObjectID) (*models.Cart, error) {
	return findOne[models.Cart](ctx, r.coll, byOwner(owner), "find cart")
}

func (r *CartRepository) Create(ctx context.Context, c *models.Cart) error {
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	_, err := r.coll.InsertOne(ctx, c)
	return translate(err, "insert cart")
}

// Save writes the items and coupon of the owner's cart, creating the cart
// when it does not exist yet.
func (r *CartRepository) Save(ctx context.Context, c *models.Cart) error {
	now := time.Now().UTC()
	items := c.Items
	if items == nil {
		items = []models.CartItem{}
	}
	update := bson.M{
		"$set":         bson.M{"items": items, "coupon": c.Coupon, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := r.coll.UpdateOne(ctx, byOwner(c.Owner), update, options.Update().SetUpsert(true))
	return translate(err, "save cart")
}

func (r *CartRepository) PullItem(ctx context.Context, owner, productID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"items": bson.M{"productId": productID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.coll.UpdateOne(ctx, byOwner(owner), update)
	return translate(err, "pull cart item")
}

// Clear empties the items and detaches the coupon in one update.
func (r *CartRepository) Clear(ctx context.Context, owner primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{
		"items":     []models.CartItem{},
		"coupon":    nil,
		"updatedAt": time.Now().UTC(),
	}}
	_, err := r.coll.UpdateOne(ctx, byOwner(owner), update)
	return translate(err, "clear cart")
}

func (r *CartRepository) SetCoupon(ctx context.Context, owner primitive.ObjectID, coupon *primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"coupon": coupon, "updatedAt": time.Now().UTC()}}
	_, err := r.coll.UpdateOne(ctx, byOwner(owner), update)
	return translate(err, "set cart coupon")
}

func (r *CartRepository) DeleteByOwner(ctx context.Context, owner primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, byOwner(owner))
	return translate(err, "delete cart")
}
