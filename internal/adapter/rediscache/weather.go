// Package rediscache caches forecasts in Redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"astroplanner/internal/domain"
)

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// store is the subset of Redis the cache needs.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type redisStore struct {
	client redis.Cmdable
}

func (s redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.client.Get(ctx, key).Bytes()
}

func (s redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// WeatherCache wraps a WeatherProvider. Forecasts are keyed by coordinates
// rounded to three decimals and the UTC hour. Cache failures are logged and
// the request falls through to the wrapped provider.
type WeatherCache struct {
	next   domain.WeatherProvider
	store  store
	ttl    time.Duration
	logger *zap.Logger
}

var _ domain.WeatherProvider = (*WeatherCache)(nil)

// NewWeatherCache decorates next with a Redis cache.
func NewWeatherCache(client redis.Cmdable, next domain.WeatherProvider, ttl time.Duration, logger *zap.Logger) *WeatherCache {
	return newWeatherCache(redisStore{client: client}, next, ttl, logger)
}

func newWeatherCache(s store, next domain.WeatherProvider, ttl time.Duration, logger *zap.Logger) *WeatherCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherCache{next: next, store: s, ttl: ttl, logger: logger.Named("weather-cache")}
}

func weatherKey(latitude, longitude float64, at time.Time) string {
	return fmt.Sprintf("weather:%.3f:%.3f:%s", latitude, longitude, at.UTC().Truncate(time.Hour).Format("2006010215"))
}

// Forecast implements domain.WeatherProvider.
func (c *WeatherCache) Forecast(ctx context.Context, latitude, longitude float64, at time.Time) (*domain.WeatherSnapshot, error) {
	key := weatherKey(latitude, longitude, at)

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var snap domain.WeatherSnapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return &snap, nil
		}
		c.logger.Warn("Discarding unreadable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}

	snap, err := c.next.Forecast(ctx, latitude, longitude, at)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(snap); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return snap, nil
}
