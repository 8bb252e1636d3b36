// Package services содержит запросы личных данных участника по командам
// бота: анкета и дата ближайшего продления.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godlycrypto/referral-bot/internal/models"
)

// ProfileRepository определяет методы хранилища для личных запросов.
type ProfileRepository interface {
	GetMemberByID(ctx context.Context, userID int64) (*models.Member, error)
}

// ProfileService отвечает на личные запросы участника.
type ProfileService struct {
	repo ProfileRepository
	log  *slog.Logger
}

// NewProfileService создает новый экземпляр ProfileService.
func NewProfileService(repo ProfileRepository, log *slog.Logger) *ProfileService {
	return &ProfileService{repo: repo, log: log}
}

// Member возвращает анкету участника.
func (s *ProfileService) Member(ctx context.Context, userID int64) (*models.Member, error) {
	const op = "profile.Member"
	member, err := s.repo.GetMemberByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return member, nil
}

// RenewalDate возвращает дату ближайшего продления подписки,
// nil — подписка не активна.
func (s *ProfileService) RenewalDate(ctx context.Context, userID int64) (*time.Time, error) {
	const op = "profile.RenewalDate"
	member, err := s.repo.GetMemberByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return member.SubscriptionRenewalDate, nil
}
