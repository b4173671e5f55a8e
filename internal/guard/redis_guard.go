// Package guard provides a Redis lock that serializes booking creation per
// car across service instances.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rentwheel/service-rental/internal/application"
)

const keyPrefix = "rental:booking-lock:"

// ErrLocked is returned when another creator holds the car's lock.
var ErrLocked = application.ErrCreationLocked

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another creator is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard holds a short-lived SET NX lock per car.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisGuard creates a guard whose locks expire after ttl.
func NewRedisGuard(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl, logger: logger}
}

// Acquire takes the lock for carID without waiting.
func (g *RedisGuard) Acquire(ctx context.Context, carID uuid.UUID) (func(), error) {
	key := keyPrefix + carID.String()
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire booking lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	release := func() {
		// The request context may already be done; release on its own deadline.
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, g.client, []string{key}, token).Err(); err != nil {
			g.logger.Warn("failed to release booking lock", zap.String("key", key), zap.Error(err))
		}
	}
	return release, nil
}

// NewRedisClient creates a Redis client from connection settings.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Ping checks the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
