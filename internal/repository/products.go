package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopkart_back_end/internal/database"
	"shopkart_back_end/internal/models"
)

type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(database.ProductsCollection)}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if p.SubImages == nil {
		p.SubImages = []models.SubImage{}
	}
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err, "insert product")
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return findOne[models.Product](ctx, r.coll, byID(id), "find product")
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	return findMany[models.Product](ctx, r.coll, byIDs(ids), "find products")
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"category":    p.Category,
		"name":        p.Name,
		"description": p.Description,
		"mainImage":   p.MainImage,
		"subImages":   p.SubImages,
		"price":       p.Price,
		"stock":       p.Stock,
		"updatedAt":   p.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, byID(p.ID), update)
	return matchOne(res, err, "update product")
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, byID(id), "delete product")
}

func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter, q models.PageQuery) (models.Page[models.Product], error) {
	filter := bson.M{}
	if f.Category != nil {
		filter["category"] = *f.Category
	}
	return paginate[models.Product](ctx, r.coll, filter, q, "list products")
}

// DecrementStock subtracts each ordered quantity in a single unordered bulk
// write. Stock is allowed to go negative.
func (r *ProductRepository) DecrementStock(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(items))
	for _, it := range items {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(byID(it.ProductID)).
			SetUpdate(bson.M{"$inc": bson.M{"stock": -it.Quantity}}))
	}

	opts := options.BulkWrite().SetOrdered(false).SetBypassDocumentValidation(true)
	if _, err := r.coll.BulkWrite(ctx, writes, opts); err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	return nil
}

// PullSubImage removes one sub image and returns the updated product.
func (r *ProductRepository) PullSubImage(ctx context.Context, productID, subImageID primitive.ObjectID) (*models.Product, error) {
	update := bson.M{
		"$pull": bson.M{"subImages": bson.M{"_id": subImageID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Product
	if err := r.coll.FindOneAndUpdate(ctx, byID(productID), update, opts).Decode(&p); err != nil {
		return nil, translate(err, "pull sub image")
	}
	return &p, nil
}
