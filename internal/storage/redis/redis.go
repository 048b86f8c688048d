package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boden-crm/inbox-service/internal/storage"
	"github.com/go-redis/redis/v8"
)

type RedisKV struct {
	client *redis.Client
}

// NewRedisKV connects to the redis instance and verifies it with a retried ping.
func NewRedisKV(ctx context.Context, addr, password string) (*RedisKV, error) {
	rClient := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	retryTicker := time.NewTicker(time.Second * 2)
	defer retryTicker.Stop()

	// retry ping
	var pingErr error
	for range 5 {
		if pingErr = rClient.Ping(ctx).Err(); pingErr == nil {
			break
		}
		<-retryTicker.C
	}
	if pingErr != nil {
		return nil, fmt.Errorf("failed to ping redis instance: %w", pingErr)
	}

	return &RedisKV{
		client: rClient,
	}, nil
}

func (r *RedisKV) HGet(ctx context.Context, key, field string) (string, error) {
	val, err := r.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	return val, err
}

func (r *RedisKV) HSet(ctx context.Context, key, field, value string) error {
	return r.client.HSet(ctx, key, field, value).Err()
}

func (r *RedisKV) HVals(ctx context.Context, key string) ([]string, error) {
	return r.client.HVals(ctx, key).Result()
}

func (r *RedisKV) RPush(ctx context.Context, key, value string) error {
	return r.client.RPush(ctx, key, value).Err()
}

func (r *RedisKV) LRange(ctx context.Context, key string) ([]string, error) {
	return r.client.LRange(ctx, key, 0, -1).Result()
}

func (r *RedisKV) SAdd(ctx context.Context, key, member string) error {
	return r.client.SAdd(ctx, key, member).Err()
}

func (r *RedisKV) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.client.SMembers(ctx, key).Result()
}

func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}
