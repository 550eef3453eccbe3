// Package cache wraps go-redis with JSON helpers. It backs the promo lookup
// cache in the API and the bot session store.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/config"
)

// Redis wraps a go-redis client with a key prefix and logging.
type Redis struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

// New returns a Redis cache from configuration. prefix namespaces all keys
// (e.g. "luxecore:").
func New(cfg config.RedisConfig, prefix string, log zerolog.Logger) *Redis {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return NewWithClient(redis.NewClient(opts), prefix, log)
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, log zerolog.Logger) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		log:    log.With().Str("component", "redis").Logger(),
	}
}

// Client exposes the underlying go-redis client.
func (r *Redis) Client() *redis.Client { return r.client }

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// SetJSON stores value as JSON under key with ttl (0 means no expiry).
func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// GetJSON loads key into dest. It reports false on a miss.
func (r *Redis) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("dropping undecodable cache entry")
		_ = r.client.Del(ctx, r.key(key)).Err()
		return false, nil
	}
	return true, nil
}

// Delete removes key. Missing keys are not an error.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close releases Redis resources.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) key(k string) string { return r.prefix + k }
