package export

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Writer stores batches of keys.
type Writer interface {
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl time.Duration) error
	Close() error
}

// RedisWriter writes batches through a go-redis pipeline.
type RedisWriter struct {
	client *redis.Client
}

// NewRedisWriter connects and pings Redis.
func NewRedisWriter(ctx context.Context, cfg Config) (*RedisWriter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisWriter{client: client}, nil
}

func (w *RedisWriter) BatchSet(ctx context.Context, kvs map[string][]byte, ttl time.Duration) error {
	if len(kvs) == 0 {
		return nil
	}
	pipe := w.client.Pipeline()
	for k, v := range kvs {
		pipe.Set(ctx, k, v, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (w *RedisWriter) Close() error {
	return w.client.Close()
}
