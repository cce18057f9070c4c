package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopkart_back_end/internal/models"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestTokenStore_RefreshLifecycle(t *testing.T) {
	mr, rdb := setupRedis(t)
	store := NewTokenStore(rdb)
	ctx := context.Background()

	got, err := store.RefreshToken(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.StoreRefreshToken(ctx, "u1", "tok", time.Hour))
	got, err = store.RefreshToken(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	mr.FastForward(2 * time.Hour)
	got, err = store.RefreshToken(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.StoreRefreshToken(ctx, "u1", "tok2", time.Hour))
	require.NoError(t, store.DeleteRefreshToken(ctx, "u1"))
	got, err = store.RefreshToken(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTokenStore_Blacklist(t *testing.T) {
	mr, rdb := setupRedis(t)
	store := NewTokenStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.Blacklist(ctx, "jti", time.Minute))
	ok, err := store.IsBlacklisted(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = store.IsBlacklisted(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Blacklist(ctx, "expired", 0))
	ok, err = store.IsBlacklisted(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAttemptLimiter_LocksOutAfterMax(t *testing.T) {
	mr, rdb := setupRedis(t)
	lim := NewAttemptLimiter(rdb, "login", 2, 15*time.Minute)
	ctx := context.Background()

	wait, err := lim.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, wait)

	remaining, err := lim.Fail(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
	remaining, err = lim.Fail(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	wait, err = lim.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, wait)

	mr.FastForward(16 * time.Minute)
	wait, err = lim.Blocked(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, wait)
}

func TestAttemptLimiter_Reset(t *testing.T) {
	_, rdb := setupRedis(t)
	lim := NewAttemptLimiter(rdb, "login", 1, time.Minute)
	ctx := context.Background()

	_, err := lim.Fail(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, lim.Reset(ctx, "bob"))

	wait, err := lim.Blocked(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, wait)
}

type countingFinder struct {
	user  *models.User
	calls int
}

func (f *countingFinder) FindByID(context.Context, primitive.ObjectID) (*models.User, error) {
	f.calls++
	return f.user, nil
}

func TestUserCache_ReadThrough(t *testing.T) {
	_, rdb := setupRedis(t)
	u := &models.User{ID: primitive.NewObjectID(), Username: "alice", Password: "hash"}
	finder := &countingFinder{user: u}
	uc := NewUserCache(rdb, finder, zap.NewNop())
	ctx := context.Background()

	got, err := uc.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got, err = uc.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.Password)
	assert.Equal(t, 1, finder.calls)

	uc.Invalidate(ctx, u.ID)
	_, err = uc.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, finder.calls)
}
