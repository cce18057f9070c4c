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

type CouponRepository struct {
	coll *mongo.Collection
}

func NewCouponRepository(db *mongo.Database) *CouponRepository {
	return &CouponRepository{coll: db.Collection(database.CouponsCollection)}
}

func (r *CouponRepository) Create(ctx context.Context, c *models.Coupon) error {
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, c)
	return translate(err, "insert coupon")
}

func (r *CouponRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	return findOne[models.Coupon](ctx, r.coll, byID(id), "find coupon")
}

func (r *CouponRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Coupon, error) {
	if len(ids) == 0 {
		return []models.Coupon{}, nil
	}
	return findMany[models.Coupon](ctx, r.coll, byIDs(ids), "find coupons")
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return findOne[models.Coupon](ctx, r.coll, bson.M{"couponCode": code}, "find coupon by code")
}

// FindApplicable finds an active coupon with the code whose window contains now.
func (r *CouponRepository) FindApplicable(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	filter := bson.M{
		"couponCode": code,
		"startDate":  bson.M{"$lt": now},
		"expiryDate": bson.M{"$gt": now},
		"isActive":   true,
	}
	return findOne[models.Coupon](ctx, r.coll, filter, "find applicable coupon")
}

func (r *CouponRepository) Update(ctx context.Context, c *models.Coupon) error {
	c.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":             c.Name,
		"couponCode":       c.CouponCode,
		"type":             c.Type,
		"discountValue":    c.DiscountValue,
		"minimumCartValue": c.MinimumCartValue,
		"startDate":        c.StartDate,
		"expiryDate":       c.ExpiryDate,
		"updatedAt":        c.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, byID(c.ID), update)
	return matchOne(res, err, "update coupon")
}

func (r *CouponRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.Coupon, error) {
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var c models.Coupon
	if err := r.coll.FindOneAndUpdate(ctx, byID(id), update, opts).Decode(&c); err != nil {
		return nil, translate(err, "set coupon status")
	}
	return &c, nil
}

func (r *CouponRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, byID(id), "delete coupon")
}

func (r *CouponRepository) List(ctx context.Context, f models.CouponFilter, q models.PageQuery) (models.Page[models.Coupon], error) {
	filter := bson.M{}
	if f.ActiveAt != nil {
		filter["startDate"] = bson.M{"$lt": *f.ActiveAt}
		filter["isActive"] = true
	}
	return paginate[models.Coupon](ctx, r.coll, filter, q, "list coupons")
}
