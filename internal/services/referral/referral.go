// Package services содержит подсчёт реферальных начислений: количество
// одобренных приглашённых за всё время и за текущий расчётный период,
// с кешированием результата.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godlycrypto/referral-bot/internal/lib/renewal"
	"github.com/godlycrypto/referral-bot/internal/lib/sl"
	"github.com/godlycrypto/referral-bot/internal/models"
)

// statsTTL время жизни кешированной статистики спонсора.
const statsTTL = 5 * time.Minute

// ReferralRepository определяет методы хранилища для подсчёта приглашённых.
type ReferralRepository interface {
	CountReferrals(ctx context.Context, filter models.ReferralFilter) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// ReferralService считает реферальные начисления спонсоров.
type ReferralService struct {
	repo       ReferralRepository
	cache      Cache
	reward     int
	renewalDay int
	log        *slog.Logger
	now        func() time.Time
}

// NewReferralService создает новый экземпляр ReferralService.
func NewReferralService(repo ReferralRepository, cache Cache, reward, renewalDay int, log *slog.Logger) *ReferralService {
	return &ReferralService{
		repo:       repo,
		cache:      cache,
		reward:     reward,
		renewalDay: renewalDay,
		log:        log,
		now:        time.Now,
	}
}

// Stats возвращает начисления спонсора: за всё время и за текущий период.
// Период считается от последнего наступившего дня продления до конца
// текущего дня, поэтому счётчик за период никогда не превышает общий.
func (s *ReferralService) Stats(ctx context.Context, sponsorID int64) (*models.EarningsStats, error) {
	const op = "referral.Stats"

	cacheKey := fmt.Sprintf("referral_stats:%d", sponsorID)
	var cached models.EarningsStats
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read referral stats cache", slog.String("key", cacheKey), sl.Err(err))
	} else if found {
		return &cached, nil
	}

	periodStart, periodEnd := renewal.PeriodBounds(s.now(), s.renewalDay)

	allTime, err := s.repo.CountReferrals(ctx, models.ReferralFilter{
		Godfather:    sponsorID,
		OnlyApproved: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	period, err := s.repo.CountReferrals(ctx, models.ReferralFilter{
		Godfather:      sponsorID,
		OnlyApproved:   true,
		RegisteredFrom: &periodStart,
		RegisteredTo:   &periodEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats := &models.EarningsStats{
		AllTimeCount:    allTime,
		PeriodCount:     period,
		AllTimeEarnings: allTime * s.reward,
		PeriodEarnings:  period * s.reward,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
	}
	if err := s.cache.Set(cacheKey, stats, statsTTL); err != nil {
		s.log.Warn("failed to cache referral stats", slog.String("key", cacheKey), sl.Err(err))
	}
	return stats, nil
}

// TotalReferred возвращает количество приглашённых участником независимо
// от статуса заявки. Используется командами /stats и /referralstats.
func (s *ReferralService) TotalReferred(ctx context.Context, sponsorID int64) (int, error) {
	const op = "referral.TotalReferred"
	count, err := s.repo.CountReferrals(ctx, models.ReferralFilter{Godfather: sponsorID})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
