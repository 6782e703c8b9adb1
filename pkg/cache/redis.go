package cache

import (
	"context"
	"time"

	"github.com/matst80/slask-gallery/pkg/common/jsoncompat"
	"github.com/redis/go-redis/v9"
)

type RedisRemote struct {
	Prefix string
	client *redis.Client
}

func NewRedisRemote(addr, password string, db int) *RedisRemote {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRemote{Prefix: "gallery:", client: rdb}
}

func (r *RedisRemote) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRemote) Get(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, r.Prefix+key).Bytes()
	if err != nil {
		return err
	}
	return jsoncompat.Unmarshal(data, out)
}

func (r *RedisRemote) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := jsoncompat.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.Prefix+key, data, ttl).Err()
}

func (r *RedisRemote) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.Prefix+key).Err()
}

func (r *RedisRemote) Close() error {
	return r.client.Close()
}
