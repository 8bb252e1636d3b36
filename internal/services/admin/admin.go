// Package services содержит обработку решений администратора по заявкам:
// одобрение с расчётом даты продления и отклонение. Запись решения
// фиксируется независимо от того, удалось ли уведомить участника.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/godlycrypto/referral-bot/internal/lib/renewal"
	"github.com/godlycrypto/referral-bot/internal/lib/sl"
	"github.com/godlycrypto/referral-bot/internal/metrics"
	"github.com/godlycrypto/referral-bot/internal/models"
)

// Action действие администратора над заявкой.
type Action string

// Возможные действия.
const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ErrAlreadyDecided возвращается при повторном решении по заявке,
// уже находящейся в терминальном статусе. Повторные уведомления
// участнику при этом не отправляются.
var ErrAlreadyDecided = errors.New("member already decided")

// AdminRepository определяет методы хранилища, нужные обработке решений.
type AdminRepository interface {
	GetMemberByID(ctx context.Context, userID int64) (*models.Member, error)
	UpdateDecision(ctx context.Context, userID int64, status models.Status, startDate, renewalDate *time.Time) (int, error)
}

// Cache описывает инвалидацию кеша реферальной статистики.
type Cache interface {
	Invalidate(key string) error
}

// DecisionResult итог применённого решения.
type DecisionResult struct {
	Member      *models.Member // Анкета до применения решения
	NewStatus   models.Status
	RenewalDate time.Time // Заполняется только при одобрении
}

// AdminService применяет решения администратора к заявкам.
type AdminService struct {
	repo       AdminRepository
	cache      Cache
	renewalDay int
	log        *slog.Logger
	now        func() time.Time
}

// NewAdminService создает новый экземпляр AdminService.
func NewAdminService(repo AdminRepository, cache Cache, renewalDay int, log *slog.Logger) *AdminService {
	return &AdminService{
		repo:       repo,
		cache:      cache,
		renewalDay: renewalDay,
		log:        log,
		now:        time.Now,
	}
}

// Decide применяет решение к заявке. Статус монотонен: заявка в терминальном
// статусе не меняется, возвращается ErrAlreadyDecided. Отсутствующая анкета
// — repository.ErrMemberNotFound без изменений в хранилище.
func (s *AdminService) Decide(ctx context.Context, action Action, userID int64) (*DecisionResult, error) {
	const op = "admin.Decide"

	member, err := s.repo.GetMemberByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if member.Status != models.StatusPending {
		return &DecisionResult{Member: member, NewStatus: member.Status},
			fmt.Errorf("%s: %w", op, ErrAlreadyDecided)
	}

	switch action {
	case ActionApprove:
		return s.approve(ctx, member)
	case ActionReject:
		return s.reject(ctx, member)
	}
	return nil, fmt.Errorf("%s: unknown action %q", op, action)
}

func (s *AdminService) approve(ctx context.Context, member *models.Member) (*DecisionResult, error) {
	const op = "admin.approve"

	now := s.now()
	startDate := now.UTC()
	renewalDate := renewal.Date(now.UTC(), s.renewalDay)
	if _, err := s.repo.UpdateDecision(ctx, member.UserID, models.StatusApproved, &startDate, &renewalDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Реферальная статистика спонсора изменилась.
	if member.Godfather != nil {
		key := fmt.Sprintf("referral_stats:%d", *member.Godfather)
		if err := s.cache.Invalidate(key); err != nil {
			s.log.Warn("failed to invalidate referral stats cache", slog.String("key", key), sl.Err(err))
		}
	}

	metrics.Decisions.WithLabelValues(string(ActionApprove)).Inc()
	s.log.Info("member approved", slog.Int64("user_id", member.UserID),
		slog.Time("renewal_date", renewalDate))
	return &DecisionResult{Member: member, NewStatus: models.StatusApproved, RenewalDate: renewalDate}, nil
}

func (s *AdminService) reject(ctx context.Context, member *models.Member) (*DecisionResult, error) {
	const op = "admin.reject"

	if _, err := s.repo.UpdateDecision(ctx, member.UserID, models.StatusRejected, nil, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Decisions.WithLabelValues(string(ActionReject)).Inc()
	s.log.Info("member rejected", slog.Int64("user_id", member.UserID))
	return &DecisionResult{Member: member, NewStatus: models.StatusRejected}, nil
}
