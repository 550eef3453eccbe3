package session

import (
	"context"
	"fmt"
	"time"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/cache"
)

// RedisStore keeps sessions as JSON in Redis. Every Set refreshes the ttl, so
// an idle user's cart and draft expire together.
type RedisStore struct {
	rdb *cache.Redis
	ttl time.Duration
}

// NewRedisStore stores sessions through rdb with the given ttl (0 means no
// expiry).
func NewRedisStore(rdb *cache.Redis, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, userID int64) (*Session, error) {
	var s Session
	ok, err := r.rdb.GetJSON(ctx, key(userID), &s)
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", userID, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *RedisStore) Set(ctx context.Context, s *Session) error {
	if err := r.rdb.SetJSON(ctx, key(s.UserID), s, r.ttl); err != nil {
		return fmt.Errorf("save session %d: %w", s.UserID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, userID int64) error {
	return r.rdb.Delete(ctx, key(userID))
}
