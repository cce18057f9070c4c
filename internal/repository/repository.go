// Package repository implements the service stores on MongoDB.
package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopkart_back_end/internal/models"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

// translate maps driver errors onto the model sentinels.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(models.ErrDuplicate, op)
	default:
		return errors.Wrap(err, op)
	}
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, op string) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, op)
	}
	return &doc, nil
}

func findMany[T any](ctx context.Context, coll *mongo.Collection, filter any, op string, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return docs, nil
}

func paginate[T any](ctx context.Context, coll *mongo.Collection, filter any, q models.PageQuery, op string) (models.Page[T], error) {
	q = q.Normalize()
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return models.Page[T]{}, errors.Wrap(err, op)
	}

	opts := options.Find().SetSort(newestFirst).SetSkip(q.Skip()).SetLimit(q.Limit)
	docs, err := findMany[T](ctx, coll, filter, op, opts)
	if err != nil {
		return models.Page[T]{}, err
	}
	return models.NewPage(docs, total, q), nil
}

// matchOne turns a zero MatchedCount into ErrNotFound.
func matchOne(res *mongo.UpdateResult, err error, op string) error {
	if err != nil {
		return translate(err, op)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, filter any, op string) error {
	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return errors.Wrap(err, op)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func stamp(id *primitive.ObjectID, createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

func byID(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id}
}

func byIDs(ids []primitive.ObjectID) bson.M {
	return bson.M{"_id": bson.M{"$in": ids}}
}
