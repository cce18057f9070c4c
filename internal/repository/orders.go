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

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(database.OrdersCollection)}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, o)
	return translate(err, "insert order")
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return findOne[models.Order](ctx, r.coll, byID(id), "find order")
}

// MarkPaid flags the order created through provider with paymentID as paid.
// alreadyPaid reports the flag as it was before the update, so callers can
// skip one-shot steps on a replayed confirmation.
func (r *OrderRepository) MarkPaid(ctx context.Context, provider models.PaymentProvider, paymentID string) (order *models.Order, alreadyPaid bool, err error) {
	update := bson.M{"$set": bson.M{"isPaymentDone": true, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before models.Order
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"paymentId": paymentID, "paymentProvider": provider}, update, opts).Decode(&before); err != nil {
		return nil, false, translate(err, "mark order paid")
	}
	alreadyPaid = before.IsPaymentDone
	before.IsPaymentDone = true
	return &before, alreadyPaid, nil
}

func (r *OrderRepository) MarkStockDecremented(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"stockDecremented": true, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, byID(id), update)
	if err != nil {
		return translate(err, "mark stock decremented")
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, f models.OrderFilter, q models.PageQuery) (models.Page[models.Order], error) {
	filter := bson.M{}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.Customer != nil {
		filter["customer"] = *f.Customer
	}
	return paginate[models.Order](ctx, r.coll, filter, q, "list orders")
}
