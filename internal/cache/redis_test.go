package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godlycrypto/referral-bot/internal/config"
	"github.com/godlycrypto/referral-bot/internal/models"
)

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		Addr: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := models.EarningsStats{
		AllTimeCount:    10,
		PeriodCount:     3,
		AllTimeEarnings: 20000,
		PeriodEarnings:  6000,
	}
	err := cache.Set("referral_stats:42", expected, time.Minute)
	require.NoError(t, err)

	var actual models.EarningsStats
	found, err := cache.Get("referral_stats:42", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGet_Missing(t *testing.T) {
	cache := setupTestCache(t)

	var actual models.EarningsStats
	found, err := cache.Get("referral_stats:404", &actual)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("referral_stats:42", models.EarningsStats{AllTimeCount: 1}, time.Minute))
	require.NoError(t, cache.Invalidate("referral_stats:42"))

	var actual models.EarningsStats
	found, err := cache.Get("referral_stats:42", &actual)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate_MissingKey(t *testing.T) {
	cache := setupTestCache(t)
	assert.NoError(t, cache.Invalidate("referral_stats:404"))
}
