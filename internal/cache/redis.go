package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
)

// guestCartTTL bounds how long an abandoned guest cart survives.
const guestCartTTL = 30 * 24 * time.Hour

// Redis is a Store backed by a Redis key, one per storefront session.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis creates a Redis-backed cart cache. addr accepts either a
// redis:// URL or a plain host:port. sessionID scopes the key to one
// storefront session.
func NewRedis(addr, sessionID string) (*Redis, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  10 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		}
	}
	return &Redis{
		client: redis.NewClient(opts),
		key:    "cart:guest:" + sessionID,
	}, nil
}

// NewRedisWithClient wraps an existing client; used when the caller owns
// the connection pool.
func NewRedisWithClient(client *redis.Client, sessionID string) *Redis {
	return &Redis{client: client, key: "cart:guest:" + sessionID}
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context) ([]model.CartItem, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cart cache: %w", err)
	}
	items, err := decodeItems(data)
	if err != nil {
		// Corrupt entry: best-effort discard, then report a miss.
		r.client.Del(ctx, r.key)
		return nil, ErrCacheMiss
	}
	return items, nil
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, items []model.CartItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, guestCartTTL).Err(); err != nil {
		return fmt.Errorf("writing cart cache: %w", err)
	}
	return nil
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("deleting cart cache: %w", err)
	}
	return nil
}

// Ping reports whether the backing Redis is reachable.
func (r *Redis) Ping(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}
