// Package services содержит бизнес-логику диалога регистрации: строгую
// последовательность шагов анкеты, разрешение спонсора и отправку заявки
// в хранилище. Транспортные детали (клавиатуры, отправка сообщений)
// остаются на уровне диспетчера.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/godlycrypto/referral-bot/internal/lib/sl"
	"github.com/godlycrypto/referral-bot/internal/messages"
	"github.com/godlycrypto/referral-bot/internal/metrics"
	"github.com/godlycrypto/referral-bot/internal/models"
	"github.com/godlycrypto/referral-bot/internal/storage/repository"
)

// SkipSentinel слово, которым участник пропускает шаг спонсора.
const SkipSentinel = "skip"

// MemberRepository определяет методы хранилища, нужные регистрации.
type MemberRepository interface {
	// GetMemberByID возвращает анкету по идентификатору Telegram.
	GetMemberByID(ctx context.Context, userID int64) (*models.Member, error)
	// GetMemberByUsername возвращает анкету по публичному username.
	GetMemberByUsername(ctx context.Context, username string) (*models.Member, error)
	// UpsertMember сохраняет анкету, перезаписывая существующую запись.
	UpsertMember(ctx context.Context, m models.Member) error
}

// Reply ответ участнику: тип сообщения, язык и параметры подстановки.
// Нулевое значение (KindNone) означает, что отвечать не нужно.
type Reply struct {
	Kind   messages.Kind
	Lang   models.Language
	Params messages.Params
}

// RegistrationService реализует конечный автомат диалога регистрации.
type RegistrationService struct {
	repo   MemberRepository
	drafts *DraftStore
	fee    int
	log    *slog.Logger
	now    func() time.Time
}

// NewRegistrationService создает новый экземпляр RegistrationService.
func NewRegistrationService(repo MemberRepository, drafts *DraftStore, fee int, log *slog.Logger) *RegistrationService {
	return &RegistrationService{
		repo:   repo,
		drafts: drafts,
		fee:    fee,
		log:    log,
		now:    time.Now,
	}
}

// Start начинает диалог регистрации по команде /start. Для уже одобренного
// участника диалог не начинается: возвращается дата ближайшего продления.
func (s *RegistrationService) Start(ctx context.Context, userID int64, username string) (Reply, error) {
	const op = "registration.Start"

	existing, err := s.repo.GetMemberByID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrMemberNotFound) {
		return Reply{}, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil && existing.Status == models.StatusApproved {
		params := messages.Params{}
		if existing.SubscriptionRenewalDate != nil {
			params.RenewalDate = existing.SubscriptionRenewalDate.Format(messages.DateFormat)
		}
		return Reply{Kind: messages.KindAlreadyActive, Lang: existing.Language, Params: params}, nil
	}

	s.drafts.Put(userID, &Draft{Step: StepLanguage, Username: username})
	s.log.Info("registration started", slog.Int64("user_id", userID))
	return Reply{Kind: messages.KindWelcome, Lang: models.LanguageEN}, nil
}

// SetLanguage фиксирует выбранный язык. Возвращает false, если диалог
// не находится на шаге выбора языка.
func (s *RegistrationService) SetLanguage(userID int64, lang models.Language) (Reply, bool) {
	d, ok := s.drafts.Get(userID)
	if !ok || d.Step != StepLanguage {
		return Reply{}, false
	}
	d.Language = lang
	d.Step = StepName
	return Reply{Kind: messages.KindAskName, Lang: lang}, true
}

// SetPaymentMethod фиксирует способ оплаты. Возвращает false, если диалог
// не находится на шаге выбора оплаты.
func (s *RegistrationService) SetPaymentMethod(userID int64, method models.PaymentMethod) (Reply, bool) {
	d, ok := s.drafts.Get(userID)
	if !ok || d.Step != StepPayment {
		return Reply{}, false
	}
	d.PaymentMethod = method
	d.Step = StepTransaction
	return Reply{Kind: messages.KindPaymentInstructions, Lang: d.Language,
		Params: messages.Params{Fee: s.fee, Method: method}}, true
}

// HandleText обрабатывает свободный текст на текущем шаге диалога.
// Текст не того вида (на шагах с кнопками) игнорируется без перехода.
// На последнем шаге возвращается сохранённая анкета для уведомления
// администратора.
func (s *RegistrationService) HandleText(ctx context.Context, userID int64, text string) (Reply, *models.Member, error) {
	d, ok := s.drafts.Get(userID)
	if !ok {
		return Reply{}, nil, nil
	}
	text = strings.TrimSpace(text)

	switch d.Step {
	case StepLanguage, StepPayment:
		// Шаг ждёт нажатия кнопки, текст игнорируется.
		return Reply{}, nil, nil
	case StepName:
		d.FullName = text
		d.Step = StepPhone
		return Reply{Kind: messages.KindAskNumber, Lang: d.Language}, nil, nil
	case StepPhone:
		d.Phone = text
		d.Step = StepEmail
		return Reply{Kind: messages.KindAskEmail, Lang: d.Language}, nil, nil
	case StepEmail:
		d.Email = strings.ToLower(text)
		d.Step = StepGodfather
		return Reply{Kind: messages.KindAskGodfather, Lang: d.Language}, nil, nil
	case StepGodfather:
		if !strings.EqualFold(text, SkipSentinel) {
			d.Godfather = s.resolveGodfather(ctx, text)
		}
		d.Step = StepPayment
		return Reply{Kind: messages.KindChoosePayment, Lang: d.Language,
			Params: messages.Params{Fee: s.fee}}, nil, nil
	case StepTransaction:
		return s.submit(ctx, userID, d, text)
	}
	return Reply{}, nil, nil
}

// Cancel завершает диалог, уничтожая черновик. Сообщение об отмене
// отправляется и тогда, когда диалога не было, как в /cancel.
func (s *RegistrationService) Cancel(userID int64) Reply {
	lang := models.LanguageEN
	if d, ok := s.drafts.Get(userID); ok && d.Language != "" {
		lang = d.Language
	}
	s.drafts.Delete(userID)
	return Reply{Kind: messages.KindCancelled, Lang: lang}
}

// InProgress сообщает, идёт ли сейчас диалог регистрации с пользователем.
func (s *RegistrationService) InProgress(userID int64) bool {
	_, ok := s.drafts.Get(userID)
	return ok
}

// resolveGodfather разрешает свободный текст в идентификатор спонсора.
// Число принимается как идентификатор без проверки существования,
// иначе выполняется поиск анкеты по username; нет совпадения — спонсора нет.
func (s *RegistrationService) resolveGodfather(ctx context.Context, input string) *int64 {
	if id, err := strconv.ParseInt(input, 10, 64); err == nil {
		return &id
	}
	member, err := s.repo.GetMemberByUsername(ctx, input)
	if err != nil {
		if !errors.Is(err, repository.ErrMemberNotFound) {
			s.log.Warn("godfather lookup failed", slog.String("input", input), sl.Err(err))
		}
		return nil
	}
	return &member.UserID
}

func (s *RegistrationService) submit(ctx context.Context, userID int64, d *Draft, transactionID string) (Reply, *models.Member, error) {
	const op = "registration.submit"

	member := models.Member{
		UserID:           userID,
		Username:         d.Username,
		Language:         d.Language,
		FullName:         d.FullName,
		Phone:            d.Phone,
		Email:            d.Email,
		Godfather:        d.Godfather,
		PaymentMethod:    d.PaymentMethod,
		TransactionID:    transactionID,
		Status:           models.StatusPending,
		RegistrationDate: s.now().UTC(),
	}

	// Черновик уничтожается в обоих исходах: повторной попытки нет.
	s.drafts.Delete(userID)

	if err := s.repo.UpsertMember(ctx, member); err != nil {
		s.log.Error("failed to save member", slog.Int64("user_id", userID), sl.Err(err))
		return Reply{Kind: messages.KindStoreError, Lang: d.Language}, nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RegistrationsSubmitted.Inc()
	s.log.Info("registration submitted", slog.Int64("user_id", userID))
	return Reply{Kind: messages.KindPendingApproval, Lang: d.Language}, &member, nil
}
