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

type CategoryRepository struct {
	coll *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{coll: db.Collection(database.CategoriesCollection)}
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, c)
	return translate(err, "insert category")
}

func (r *CategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return findOne[models.Category](ctx, r.coll, byID(id), "find category")
}

func (r *CategoryRepository) List(ctx context.Context, q models.PageQuery) (models.Page[models.Category], error) {
	return paginate[models.Category](ctx, r.coll, bson.M{}, q, "list categories")
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	c.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{"name": c.Name, "updatedAt": c.UpdatedAt}}
	res, err := r.coll.UpdateOne(ctx, byID(c.ID), update)
	return matchOne(res, err, "update category")
}

func (r *CategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, byID(id), "delete category")
}
