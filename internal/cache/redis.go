package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/hoopsight/internal/service"
)

const dashboardKeyPrefix = "hoopsight:dashboard:"

// RedisCache stores computed dashboards keyed by source fingerprint
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisCache{
		client: client,
	}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// GetDashboard returns the cached dashboard for a fingerprint, or nil on a miss
func (rc *RedisCache) GetDashboard(ctx context.Context, fingerprint string) (*service.Dashboard, error) {
	raw, err := rc.client.Get(ctx, dashboardKey(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading dashboard %s: %w", fingerprint, err)
	}

	var d service.Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decoding dashboard %s: %w", fingerprint, err)
	}
	return &d, nil
}

// SetDashboard stores a dashboard under its fingerprint
func (rc *RedisCache) SetDashboard(ctx context.Context, fingerprint string, d *service.Dashboard, ttl time.Duration) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding dashboard: %w", err)
	}
	if err := rc.client.Set(ctx, dashboardKey(fingerprint), raw, ttl).Err(); err != nil {
		return fmt.Errorf("writing dashboard %s: %w", fingerprint, err)
	}
	return nil
}

func dashboardKey(fingerprint string) string {
	return dashboardKeyPrefix + fingerprint
}
