package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/godlycrypto/referral-bot/internal/models"
)

type ReferralRepositoryMock struct {
	mock.Mock
}

func (m *ReferralRepositoryMock) CountReferrals(ctx context.Context, filter models.ReferralFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newService(repo ReferralRepository, cache Cache, now time.Time) *ReferralService {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := NewReferralService(repo, cache, 2000, 25, log)
	svc.now = func() time.Time { return now }
	return svc
}

func TestStats_CacheMiss(t *testing.T) {
	now := time.Date(2025, time.June, 27, 12, 0, 0, 0, time.UTC)
	periodStart := time.Date(2025, time.June, 25, 0, 0, 0, 0, time.UTC)

	repo := new(ReferralRepositoryMock)
	repo.On("CountReferrals", mock.Anything, models.ReferralFilter{
		Godfather:    42,
		OnlyApproved: true,
	}).Return(10, nil)
	repo.On("CountReferrals", mock.Anything, mock.MatchedBy(func(f models.ReferralFilter) bool {
		return f.Godfather == 42 && f.OnlyApproved &&
			f.RegisteredFrom != nil && f.RegisteredFrom.Equal(periodStart) &&
			f.RegisteredTo != nil
	})).Return(3, nil)

	cache := new(CacheMock)
	cache.On("Get", "referral_stats:42", mock.Anything).Return(false, nil)
	cache.On("Set", "referral_stats:42", mock.Anything, 5*time.Minute).Return(nil)

	svc := newService(repo, cache, now)
	stats, err := svc.Stats(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, 10, stats.AllTimeCount)
	assert.Equal(t, 3, stats.PeriodCount)
	assert.Equal(t, 20000, stats.AllTimeEarnings)
	assert.Equal(t, 6000, stats.PeriodEarnings)
	assert.Equal(t, periodStart, stats.PeriodStart)
	assert.GreaterOrEqual(t, stats.AllTimeCount, stats.PeriodCount)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestStats_CacheHitSkipsRepository(t *testing.T) {
	repo := new(ReferralRepositoryMock)
	cache := new(CacheMock)
	cache.On("Get", "referral_stats:42", mock.Anything).Run(func(args mock.Arguments) {
		stats := args.Get(1).(*models.EarningsStats)
		stats.AllTimeCount = 7
		stats.AllTimeEarnings = 14000
	}).Return(true, nil)

	svc := newService(repo, cache, time.Now())
	stats, err := svc.Stats(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, 7, stats.AllTimeCount)
	repo.AssertNotCalled(t, "CountReferrals", mock.Anything, mock.Anything)
}

func TestStats_CacheReadFailureFallsThrough(t *testing.T) {
	repo := new(ReferralRepositoryMock)
	repo.On("CountReferrals", mock.Anything, mock.Anything).Return(1, nil)
	cache := new(CacheMock)
	cache.On("Get", "referral_stats:42", mock.Anything).Return(false, errors.New("redis down"))
	cache.On("Set", "referral_stats:42", mock.Anything, mock.Anything).Return(nil)

	svc := newService(repo, cache, time.Now())
	stats, err := svc.Stats(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.AllTimeCount)
}

func TestStats_CacheWriteFailureIgnored(t *testing.T) {
	repo := new(ReferralRepositoryMock)
	repo.On("CountReferrals", mock.Anything, mock.Anything).Return(2, nil)
	cache := new(CacheMock)
	cache.On("Get", "referral_stats:42", mock.Anything).Return(false, nil)
	cache.On("Set", "referral_stats:42", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc := newService(repo, cache, time.Now())
	stats, err := svc.Stats(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.AllTimeCount)
}

func TestStats_RepositoryError(t *testing.T) {
	repo := new(ReferralRepositoryMock)
	repo.On("CountReferrals", mock.Anything, mock.Anything).Return(0, errors.New("connection refused"))
	cache := new(CacheMock)
	cache.On("Get", "referral_stats:42", mock.Anything).Return(false, nil)

	svc := newService(repo, cache, time.Now())
	_, err := svc.Stats(context.Background(), 42)

	require.Error(t, err)
}

func TestTotalReferred(t *testing.T) {
	repo := new(ReferralRepositoryMock)
	// Счётчик приглашённых не фильтрует по статусу заявки.
	repo.On("CountReferrals", mock.Anything, models.ReferralFilter{Godfather: 42}).Return(5, nil)

	svc := newService(repo, new(CacheMock), time.Now())
	count, err := svc.TotalReferred(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, 5, count)
	repo.AssertExpectations(t)
}
