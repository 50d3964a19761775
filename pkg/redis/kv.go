package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by KV writes when Redis is not configured
var ErrDisabled = errors.New("redis is disabled")

// KV stores JSON documents under a key prefix
// ⭐ SSOT: Redis 키 포맷은 여기서만
type KV struct {
	client *Client
	prefix string
}

// NewKV creates a new JSON key-value helper
func NewKV(client *Client, prefix string) *KV {
	return &KV{
		client: client,
		prefix: prefix,
	}
}

// Key returns the fully qualified key
func (k *KV) Key(key string) string {
	return fmt.Sprintf("%s:%s", k.prefix, key)
}

// Get loads a JSON value into dest. found=false on a missing key or disabled client.
func (k *KV) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !k.client.Enabled() {
		return false, nil
	}

	data, err := k.client.Redis().Get(ctx, k.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("kv get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("kv unmarshal %s: %w", key, err)
	}

	return true, nil
}

// Set stores value as JSON. ttl=0 keeps the key forever.
func (k *KV) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !k.client.Enabled() {
		return ErrDisabled
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv marshal %s: %w", key, err)
	}

	return k.client.Redis().Set(ctx, k.Key(key), data, ttl).Err()
}

// Delete removes a key
func (k *KV) Delete(ctx context.Context, key string) error {
	if !k.client.Enabled() {
		return ErrDisabled
	}

	return k.client.Redis().Del(ctx, k.Key(key)).Err()
}
