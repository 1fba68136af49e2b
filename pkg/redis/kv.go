package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is a prefixed string key/value helper
type KV struct {
	client *Client
	prefix string
}

// NewKV creates a key/value helper whose keys live under prefix
func NewKV(client *Client, prefix string) *KV {
	return &KV{
		client: client,
		prefix: prefix,
	}
}

// Key returns the fully qualified redis key
func (k *KV) Key(key string) string {
	return fmt.Sprintf("%s:%s", k.prefix, key)
}

// Get returns the value and whether it was present.
// A disabled client behaves as an empty store.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	if !k.client.Enabled() {
		return "", false, nil
	}

	val, err := k.client.Redis().Get(ctx, k.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}

	return val, true, nil
}

// Set stores value; ttl <= 0 means no expiry
func (k *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !k.client.Enabled() {
		return nil
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := k.client.Redis().Set(ctx, k.Key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (k *KV) Delete(ctx context.Context, key string) error {
	if !k.client.Enabled() {
		return nil
	}

	if err := k.client.Redis().Del(ctx, k.Key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
