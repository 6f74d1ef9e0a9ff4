package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/YannKr/certgen/internal/model"
)

const redisKeyPrefix = "certgen:config:"

// RedisStore keeps the config as a JSON string so several service
// instances share one layout.
type RedisStore struct {
	Client  *redis.Client
	Profile string
}

func (s *RedisStore) key() string { return redisKeyPrefix + s.Profile }

func (s *RedisStore) Save(ctx context.Context, cfg model.RenderConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := s.Client.Set(ctx, s.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key(), err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (model.RenderConfig, error) {
	data, err := s.Client.Get(ctx, s.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.RenderConfig{}, ErrNotFound
	}
	if err != nil {
		return model.RenderConfig{}, fmt.Errorf("redis get %s: %w", s.key(), err)
	}
	var cfg model.RenderConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.RenderConfig{}, fmt.Errorf("decode %s: %w", s.key(), err)
	}
	return cfg, nil
}
