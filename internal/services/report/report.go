// Package services содержит месячный отчёт реферальной программы:
// сканирование анкет, группировку одобренных за период по спонсорам,
// расчёт выплат и публикацию уведомлений в очередь.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/godlycrypto/referral-bot/internal/lib/renewal"
	"github.com/godlycrypto/referral-bot/internal/lib/sl"
	"github.com/godlycrypto/referral-bot/internal/models"
	"github.com/godlycrypto/referral-bot/internal/rabbitmq"
	"github.com/godlycrypto/referral-bot/internal/storage/repository"
)

// Час и минута запуска отчёта в день продления.
const (
	runHour   = 0
	runMinute = 5
)

// ReportRepository определяет методы хранилища, нужные отчёту.
type ReportRepository interface {
	ListAllMembers(ctx context.Context) ([]*models.Member, error)
	GetMemberByID(ctx context.Context, userID int64) (*models.Member, error)
}

// Publisher публикует уведомления в exchange notifications.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// ReportService строит месячный отчёт реферальных выплат.
type ReportService struct {
	repo       ReportRepository
	pub        Publisher
	reward     int
	renewalDay int
	log        *slog.Logger
	now        func() time.Time
}

// NewReportService создает новый экземпляр ReportService.
func NewReportService(repo ReportRepository, pub Publisher, reward, renewalDay int, log *slog.Logger) *ReportService {
	return &ReportService{
		repo:       repo,
		pub:        pub,
		reward:     reward,
		renewalDay: renewalDay,
		log:        log,
		now:        time.Now,
	}
}

// Run ждёт ближайший день продления и запускает отчёт, затем следующий.
// Завершается по отмене контекста.
func (s *ReportService) Run(ctx context.Context) {
	for {
		next := renewal.NextRun(s.now(), s.renewalDay, runHour, runMinute)
		s.log.Info("monthly report scheduled", slog.Time("next_run", next))

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("monthly report failed", sl.Err(err))
		}
	}
}

// RunOnce строит отчёт за текущий период и публикует уведомления.
// Сбои по отдельным спонсорам изолированы и не прерывают отчёт.
func (s *ReportService) RunOnce(ctx context.Context) error {
	const op = "report.RunOnce"

	runID := uuid.New().String()
	periodStart, periodEnd := renewal.PeriodBounds(s.now(), s.renewalDay)
	s.log.Info("starting monthly referral report", slog.String("run_id", runID),
		slog.Time("period_start", periodStart), slog.Time("period_end", periodEnd))

	members, err := s.repo.ListAllMembers(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	counts := make(map[int64]int)
	for _, m := range members {
		if m.Godfather == nil || m.Status != models.StatusApproved {
			continue
		}
		if m.RegistrationDate.Before(periodStart) || m.RegistrationDate.After(periodEnd) {
			continue
		}
		counts[*m.Godfather]++
	}

	sponsorIDs := make([]int64, 0, len(counts))
	for id := range counts {
		sponsorIDs = append(sponsorIDs, id)
	}
	sort.Slice(sponsorIDs, func(i, j int) bool { return sponsorIDs[i] < sponsorIDs[j] })

	report := models.AdminReport{PeriodStart: periodStart, PeriodEnd: periodEnd}
	for _, sponsorID := range sponsorIDs {
		count := counts[sponsorID]
		entry := models.ReportEntry{
			SponsorID: sponsorID,
			Count:     count,
			Amount:    count * s.reward,
		}

		sponsor, err := s.repo.GetMemberByID(ctx, sponsorID)
		switch {
		case err == nil:
			entry.Name = sponsor.FullName
			entry.Username = sponsor.Username
		case !errors.Is(err, repository.ErrMemberNotFound):
			s.log.Warn("failed to load sponsor", slog.Int64("sponsor_id", sponsorID), sl.Err(err))
		}

		report.Entries = append(report.Entries, entry)
		report.TotalPayout += entry.Amount

		// Спонсор без анкеты не уведомляется: ему некуда писать.
		if sponsor == nil || entry.Amount <= 0 {
			continue
		}
		notification := models.EarningsNotification{
			SponsorID: sponsorID,
			Count:     count,
			Amount:    entry.Amount,
		}
		if err := s.pub.Publish(rabbitmq.EarningsRoutingKey, notification); err != nil {
			s.log.Error("failed to publish earnings notification",
				slog.Int64("sponsor_id", sponsorID), sl.Err(err))
		}
	}

	if err := s.pub.Publish(rabbitmq.ReportRoutingKey, report); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("monthly referral report published", slog.String("run_id", runID),
		slog.Int("sponsors", len(report.Entries)), slog.Int("total_payout", report.TotalPayout))
	return nil
}
