package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by KV reads when the key or field does not exist.
var ErrNotFound = errors.New("storage: not found")

// KV is the key-value persistence contract of the inbox: a hash table for
// conversation aggregates, per-conversation lists for message logs and a set
// indexing conversation ids with stored messages. Implemented by the Redis
// backend in production and an in-process map outside it.
type KV interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HSet(ctx context.Context, key, field, value string) error
	HVals(ctx context.Context, key string) ([]string, error)
	RPush(ctx context.Context, key, value string) error
	LRange(ctx context.Context, key string) ([]string, error)
	SAdd(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
}

// Diagnose maps a backend error to an operator hint, distinguishing an
// authentication failure from a connectivity one.
func Diagnose(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "WRONGPASS") || strings.Contains(msg, "NOAUTH"):
		return "verify REDIS_PASSWORD"
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "i/o timeout") || strings.Contains(msg, "no such host"):
		return "verify REDIS_ADDR and network reachability"
	default:
		return "verify the Redis configuration"
	}
}
