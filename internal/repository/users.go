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

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(database.UsersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, u)
	return translate(err, "insert user")
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, byID(id), "find user")
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return findMany[models.User](ctx, r.coll, byIDs(ids), "find users")
}

// FindByEmailOrUsername matches either field; empty arguments are ignored.
func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if len(or) == 0 {
		return nil, models.ErrNotFound
	}
	return findOne[models.User](ctx, r.coll, bson.M{"$or": or}, "find user by login")
}

func (r *UserRepository) FindByEmailVerificationToken(ctx context.Context, hashed string, now time.Time) (*models.User, error) {
	filter := bson.M{
		"emailVerificationToken":  hashed,
		"emailVerificationExpiry": bson.M{"$gt": now},
	}
	return findOne[models.User](ctx, r.coll, filter, "find user by verification token")
}

func (r *UserRepository) FindByForgotPasswordToken(ctx context.Context, hashed string, now time.Time) (*models.User, error) {
	filter := bson.M{
		"forgotPasswordToken":  hashed,
		"forgotPasswordExpiry": bson.M{"$gt": now},
	}
	return findOne[models.User](ctx, r.coll, filter, "find user by reset token")
}

// Update replaces the stored document, which also drops cleared token fields.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, byID(u.ID), u, options.Replace())
	return matchOne(res, err, "update user")
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.coll, byID(id), "delete user")
}
