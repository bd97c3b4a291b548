package rediscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"astroplanner/internal/domain"
)

type mapStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (m *mapStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Forecast(context.Context, float64, float64, time.Time) (*domain.WeatherSnapshot, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	temp := 12.5
	return &domain.WeatherSnapshot{Description: "forecast", Temperature: &temp}, nil
}

func TestWeatherCache_HitWithinSameHour(t *testing.T) {
	ctx := context.Background()
	s := newMapStore()
	next := &countingProvider{}
	c := newWeatherCache(s, next, 10*time.Minute, nil)

	at := time.Date(2024, 6, 2, 3, 5, 0, 0, time.UTC)
	first, err := c.Forecast(ctx, 43.6532, -79.3832, at)
	require.NoError(t, err)
	second, err := c.Forecast(ctx, 43.6532, -79.3832, at.Add(40*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, *first.Temperature, *second.Temperature)
	assert.Equal(t, 10*time.Minute, s.ttls["weather:43.653:-79.383:2024060203"])

	_, err = c.Forecast(ctx, 43.6532, -79.3832, at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestWeatherCache_ReadFailureFallsThrough(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := newMapStore()
	s.getErr = errors.New("connection refused")
	next := &countingProvider{}
	c := newWeatherCache(s, next, time.Minute, zap.New(core))

	snap, err := c.Forecast(context.Background(), 1, 2, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "forecast", snap.Description)
	assert.Equal(t, 1, logs.FilterMessage("Cache read failed").Len())
}

func TestWeatherCache_ProviderErrorNotCached(t *testing.T) {
	s := newMapStore()
	next := &countingProvider{err: errors.New("Weather API error: 500 boom")}
	c := newWeatherCache(s, next, time.Minute, nil)

	_, err := c.Forecast(context.Background(), 1, 2, time.Now())
	assert.EqualError(t, err, "Weather API error: 500 boom")
	assert.Empty(t, s.data)
}
