package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wonny/bondmaster/backend/pkg/redis"
)

// DefaultProfile is used when no profile name is given
const DefaultProfile = "default"

// Store persists named score configs
type Store interface {
	Get(ctx context.Context, profile string) (Config, bool, error)
	Put(ctx context.Context, profile string, cfg Config) error
	Delete(ctx context.Context, profile string) error
}

// RedisStore keeps one config per profile in Redis (no expiry)
type RedisStore struct {
	kv *redis.KV
}

// NewRedisStore creates a store under the "bondmaster:score_config" prefix
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{kv: redis.NewKV(client, "bondmaster:score_config")}
}

// Get loads a profile. Stored documents are re-normalized so a stale shape
// degrades per field. found=false when the profile or Redis is absent.
func (s *RedisStore) Get(ctx context.Context, profile string) (Config, bool, error) {
	var raw json.RawMessage
	found, err := s.kv.Get(ctx, profileKey(profile), &raw)
	if err != nil {
		return Config{}, false, fmt.Errorf("load score config %q: %w", profileKey(profile), err)
	}
	if !found {
		return Config{}, false, nil
	}
	return NormalizeJSON(raw), true, nil
}

// Put stores cfg under profile
func (s *RedisStore) Put(ctx context.Context, profile string, cfg Config) error {
	if err := s.kv.Set(ctx, profileKey(profile), cfg, 0); err != nil {
		return fmt.Errorf("save score config %q: %w", profileKey(profile), err)
	}
	return nil
}

// Delete removes profile
func (s *RedisStore) Delete(ctx context.Context, profile string) error {
	if err := s.kv.Delete(ctx, profileKey(profile)); err != nil {
		return fmt.Errorf("delete score config %q: %w", profileKey(profile), err)
	}
	return nil
}

// Resolve returns the stored profile, or DefaultConfig when none is stored
func Resolve(ctx context.Context, store Store, profile string) (Config, error) {
	if store == nil {
		return DefaultConfig(), nil
	}
	cfg, found, err := store.Get(ctx, profile)
	if err != nil {
		return Config{}, err
	}
	if !found {
		return DefaultConfig(), nil
	}
	return cfg, nil
}

func profileKey(profile string) string {
	if profile == "" {
		return DefaultProfile
	}
	return profile
}
