package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis holds the shared client behind the per-user readers.
type Redis struct {
	Client *redis.Client
}

// InitRedis connects to Redis, instruments the client for tracing and
// verifies connectivity.
func InitRedis(addr string) (*Redis, error) {
	r := &Redis{Client: redis.NewClient(&redis.Options{Addr: addr})}

	if err := redisotel.InstrumentTracing(r.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := r.Client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return r, nil
}

// User returns a Reader scoped to one user's signal keys.
func (r *Redis) User(userID string) Reader {
	return userReader{client: r.Client, userID: userID}
}

// Global returns a Reader over the unscoped key space. Used for the
// platform configuration cache, which is not per-user.
func (r *Redis) Global() Reader {
	return userReader{client: r.Client}
}

// Close shuts down the Redis client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}

type userReader struct {
	client *redis.Client
	userID string
}

// Key layout mirrors the browser store: one entry per SDK key, scoped
// by user id when one is present.
func (u userReader) redisKey(key string) string {
	if u.userID == "" {
		return "signals:" + key
	}
	return fmt.Sprintf("signals:%s:%s", u.userID, key)
}

func (u userReader) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := u.client.Get(ctx, u.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", key, err)
	}
	return raw, nil
}
