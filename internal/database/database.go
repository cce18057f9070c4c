package database

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-faster/errors"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"shopkart_back_end/internal/config"
)

// Clients holds every backing service connection. Mongo and Redis are
// always set; the others stay nil when not configured.
type Clients struct {
	Mongo   *mongo.Client
	DB      *mongo.Database
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
	Scylla  *gocql.Session
}

func Connect(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*Clients, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c := &Clients{}

	mc, err := ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	c.Mongo = mc
	c.DB = mc.Database(cfg.Mongo.Database)
	lg.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	if c.Redis, err = connectRedis(ctx, cfg.Redis); err != nil {
		c.Close(context.Background())
		return nil, err
	}
	lg.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	if len(cfg.Elastic.Addresses) > 0 {
		if c.Elastic, err = connectElastic(cfg.Elastic); err != nil {
			lg.Warn("Elasticsearch unavailable, product search disabled", zap.Error(err))
		} else {
			lg.Info("Connected to Elasticsearch")
		}
	}

	if cfg.MinIO.Endpoint != "" {
		if c.MinIO, err = connectMinIO(ctx, cfg.MinIO); err != nil {
			c.Close(context.Background())
			return nil, err
		}
		lg.Info("Connected to MinIO", zap.String("endpoint", cfg.MinIO.Endpoint), zap.String("bucket", cfg.MinIO.Bucket))
	}

	if len(cfg.Scylla.Hosts) > 0 {
		if c.Scylla, err = connectScylla(cfg.Scylla); err != nil {
			lg.Warn("ScyllaDB unavailable, audit log disabled", zap.Error(err))
		} else {
			lg.Info("Connected to ScyllaDB", zap.String("keyspace", cfg.Scylla.Keyspace))
		}
	}

	return c, nil
}

func (c *Clients) Close(ctx context.Context) {
	if c.Scylla != nil {
		c.Scylla.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Mongo != nil {
		_ = c.Mongo.Disconnect(ctx)
	}
}

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(5)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongo")
	}
	return client, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return rdb, nil
}

func connectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create elastic client")
	}

	res, err := client.Info()
	if err != nil {
		return nil, errors.Wrap(err, "elastic info")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("elastic info: %s", res.Status())
	}
	return client, nil
}
