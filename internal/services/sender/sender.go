// Package services содержит доставку уведомлений реферальной программы:
// потребляет сообщения из очередей RabbitMQ и отправляет их через Telegram.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/godlycrypto/referral-bot/internal/lib/sl"
	"github.com/godlycrypto/referral-bot/internal/messages"
	"github.com/godlycrypto/referral-bot/internal/metrics"
	"github.com/godlycrypto/referral-bot/internal/models"
)

// Notifier отправляет текстовое сообщение пользователю Telegram.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// SenderService доставляет уведомления из очередей.
type SenderService struct {
	notifier    Notifier
	adminChatID int64
	log         *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(notifier Notifier, adminChatID int64, log *slog.Logger) *SenderService {
	return &SenderService{
		notifier:    notifier,
		adminChatID: adminChatID,
		log:         log,
	}
}

// SendEarningsNotification доставляет спонсору уведомление о начислениях.
// Доставка best-effort: при ошибке отправки сообщение не возвращается в
// очередь — участник мог заблокировать бота, и повтор не поможет.
func (s *SenderService) SendEarningsNotification(body []byte) error {
	var notification models.EarningsNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		s.log.Error("failed to unmarshal earnings notification", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	text := messages.EarningsText(notification.Count, notification.Amount)
	if err := s.notifier.SendText(context.Background(), notification.SponsorID, text); err != nil {
		metrics.NotificationsFailed.WithLabelValues("earnings").Inc()
		s.log.Error("failed to notify sponsor of earnings",
			slog.Int64("sponsor_id", notification.SponsorID), sl.Err(err))
		return nil
	}

	s.log.Info("earnings notification sent", slog.Int64("sponsor_id", notification.SponsorID))
	return nil
}

// SendAdminReport доставляет администратору сводный месячный отчёт.
// Ошибка отправки возвращает сообщение в очередь для повторной доставки.
func (s *SenderService) SendAdminReport(body []byte) error {
	var report models.AdminReport
	if err := json.Unmarshal(body, &report); err != nil {
		s.log.Error("failed to unmarshal admin report", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	if err := s.notifier.SendText(context.Background(), s.adminChatID, messages.ReportText(report)); err != nil {
		metrics.NotificationsFailed.WithLabelValues("report").Inc()
		s.log.Error("failed to send admin report", sl.Err(err))
		return err
	}

	s.log.Info("admin report sent", slog.Int("sponsors", len(report.Entries)),
		slog.Int("total_payout", report.TotalPayout))
	return nil
}
