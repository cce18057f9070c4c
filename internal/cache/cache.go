package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopkart_back_end/internal/models"
)

const UserCacheTTL = 5 * time.Minute

type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// UserCache is a read-through cache for the authenticated user lookup done on
// every request. Cached copies never carry password or token fields.
type UserCache struct {
	rdb   *redis.Client
	users UserFinder
	lg    *zap.Logger
}

func NewUserCache(rdb *redis.Client, users UserFinder, lg *zap.Logger) *UserCache {
	return &UserCache{rdb: rdb, users: users, lg: lg}
}

func userKey(id primitive.ObjectID) string {
	return "user:" + id.Hex()
}

func (c *UserCache) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if data, err := c.rdb.Get(ctx, userKey(id)).Bytes(); err == nil {
		var u models.User
		if json.Unmarshal(data, &u) == nil {
			return &u, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.lg.Warn("User cache read failed", zap.Error(err))
	}

	u, err := c.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(u); err == nil {
		if err := c.rdb.Set(ctx, userKey(id), data, UserCacheTTL).Err(); err != nil {
			c.lg.Warn("User cache write failed", zap.Error(err))
		}
	}
	return u, nil
}

// Invalidate drops the cached copy after the user document changes.
func (c *UserCache) Invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := c.rdb.Del(ctx, userKey(id)).Err(); err != nil {
		c.lg.Warn("User cache invalidation failed", zap.Error(err))
	}
}
