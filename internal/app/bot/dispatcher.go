package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/godlycrypto/referral-bot/internal/lib/sl"
	"github.com/godlycrypto/referral-bot/internal/messages"
	"github.com/godlycrypto/referral-bot/internal/metrics"
	"github.com/godlycrypto/referral-bot/internal/models"
	adminservice "github.com/godlycrypto/referral-bot/internal/services/admin"
	profileservice "github.com/godlycrypto/referral-bot/internal/services/profile"
	referralservice "github.com/godlycrypto/referral-bot/internal/services/referral"
	regservice "github.com/godlycrypto/referral-bot/internal/services/registration"
	"github.com/godlycrypto/referral-bot/internal/storage/repository"
	"github.com/godlycrypto/referral-bot/internal/telegram"
)

// updatesTimeout тайм-аут long polling в секундах.
const updatesTimeout = 30

// Dispatcher маршрутизирует обновления Telegram к сервисам: команды,
// свободный текст диалога регистрации и нажатия inline-кнопок.
type Dispatcher struct {
	tg           *telegram.Client
	registration *regservice.RegistrationService
	admin        *adminservice.AdminService
	referral     *referralservice.ReferralService
	profile      *profileservice.ProfileService
	adminChatID  int64
	log          *slog.Logger
}

// NewDispatcher создает новый экземпляр Dispatcher.
func NewDispatcher(
	tg *telegram.Client,
	registration *regservice.RegistrationService,
	admin *adminservice.AdminService,
	referral *referralservice.ReferralService,
	profile *profileservice.ProfileService,
	adminChatID int64,
	log *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		tg:           tg,
		registration: registration,
		admin:        admin,
		referral:     referral,
		profile:      profile,
		adminChatID:  adminChatID,
		log:          log,
	}
}

// Run читает обновления до отмены контекста. Обновления обрабатываются
// последовательно: диалог регистрации хранит состояние между сообщениями,
// и порядок шагов важнее пропускной способности.
func (d *Dispatcher) Run(ctx context.Context) {
	updates := d.tg.Updates(updatesTimeout)
	for {
		select {
		case <-ctx.Done():
			d.tg.StopUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			d.handleUpdate(ctx, update)
		}
	}
}

func (d *Dispatcher) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		d.handleCommand(ctx, update.Message)
	case update.Message != nil:
		d.handleText(ctx, update.Message)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		reply, err := d.registration.Start(ctx, userID, msg.From.UserName)
		if err != nil {
			d.log.Error("failed to start registration", slog.Int64("user_id", userID), sl.Err(err))
			d.reply(ctx, userID, regservice.Reply{Kind: messages.KindStoreError, Lang: models.LanguageEN})
			return
		}
		d.reply(ctx, userID, reply)
	case "cancel":
		d.reply(ctx, userID, d.registration.Cancel(userID))
	case "renew":
		renewalDate, err := d.profile.RenewalDate(ctx, userID)
		if err != nil || renewalDate == nil {
			if err != nil && !errors.Is(err, repository.ErrMemberNotFound) {
				d.log.Error("failed to load renewal date", slog.Int64("user_id", userID), sl.Err(err))
			}
			d.send(ctx, userID, messages.NoSubscription)
			return
		}
		d.send(ctx, userID, messages.RenewalInfo(*renewalDate))
	case "referral":
		d.send(ctx, userID, messages.ReferralLink(d.tg.Username(), userID))
	case "stats", "referralstats":
		count, err := d.referral.TotalReferred(ctx, userID)
		if err != nil {
			d.log.Error("failed to count referrals", slog.Int64("user_id", userID), sl.Err(err))
			return
		}
		d.sendMenu(ctx, userID, messages.ReferralCount(count))
	case "referral_earnings":
		stats, err := d.referral.Stats(ctx, userID)
		if err != nil {
			d.log.Error("failed to load referral earnings", slog.Int64("user_id", userID), sl.Err(err))
			return
		}
		d.sendMenu(ctx, userID, messages.EarningsSummary(stats))
	case "myinfo":
		member, err := d.profile.Member(ctx, userID)
		if err != nil {
			if !errors.Is(err, repository.ErrMemberNotFound) {
				d.log.Error("failed to load member info", slog.Int64("user_id", userID), sl.Err(err))
			}
			d.sendMenu(ctx, userID, messages.NoInfo)
			return
		}
		d.sendMenu(ctx, userID, messages.MemberInfo(member))
	case "aboutus":
		d.sendMenu(ctx, userID, messages.AboutUs)
	case "contactus":
		d.sendMenu(ctx, userID, messages.ContactUs)
	}
}

func (d *Dispatcher) handleText(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	reply, member, err := d.registration.HandleText(ctx, userID, msg.Text)
	if err != nil {
		// Ответ участнику уже подготовлен сервисом (ошибка сохранения).
		d.log.Error("registration step failed", slog.Int64("user_id", userID), sl.Err(err))
	}
	d.reply(ctx, userID, reply)

	if member == nil {
		return
	}
	// Заявка отправлена: уведомляем администратора с кнопками решения.
	text := messages.AdminSubmission(*member)
	if err := d.tg.SendMarkup(ctx, d.adminChatID, text, telegram.DecisionKeyboard(member.UserID)); err != nil {
		metrics.NotificationsFailed.WithLabelValues("submission").Inc()
		d.log.Error("failed to notify admin of submission",
			slog.Int64("user_id", member.UserID), sl.Err(err))
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	d.tg.AnswerCallback(cb.ID)
	if cb.Message == nil {
		return
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, telegram.LanguageCallbackPrefix):
		lang := models.Language(strings.TrimPrefix(data, telegram.LanguageCallbackPrefix))
		reply, ok := d.registration.SetLanguage(cb.From.ID, lang)
		if !ok {
			return
		}
		d.edit(ctx, cb, reply)
	case strings.HasPrefix(data, telegram.PaymentCallbackPrefix):
		method := models.PaymentMethod(strings.TrimPrefix(data, telegram.PaymentCallbackPrefix))
		reply, ok := d.registration.SetPaymentMethod(cb.From.ID, method)
		if !ok {
			return
		}
		d.edit(ctx, cb, reply)
	case strings.HasPrefix(data, telegram.ApproveCallbackPrefix):
		userID, err := strconv.ParseInt(strings.TrimPrefix(data, telegram.ApproveCallbackPrefix), 10, 64)
		if err != nil {
			d.log.Warn("malformed approve callback", slog.String("data", data))
			return
		}
		d.handleDecision(ctx, cb, adminservice.ActionApprove, userID)
	case strings.HasPrefix(data, telegram.RejectCallbackPrefix):
		userID, err := strconv.ParseInt(strings.TrimPrefix(data, telegram.RejectCallbackPrefix), 10, 64)
		if err != nil {
			d.log.Warn("malformed reject callback", slog.String("data", data))
			return
		}
		d.handleDecision(ctx, cb, adminservice.ActionReject, userID)
	}
}

// handleDecision применяет решение администратора и редактирует исходное
// сообщение заявки, дописывая итог. Решение фиксируется независимо от того,
// удалось ли уведомить участника.
func (d *Dispatcher) handleDecision(ctx context.Context, cb *tgbotapi.CallbackQuery, action adminservice.Action, userID int64) {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	originalText := cb.Message.Text

	result, err := d.admin.Decide(ctx, action, userID)
	switch {
	case errors.Is(err, repository.ErrMemberNotFound):
		d.editAdmin(ctx, chatID, messageID, messages.AdminNotFound(userID))
		return
	case errors.Is(err, adminservice.ErrAlreadyDecided):
		d.editAdmin(ctx, chatID, messageID, originalText+messages.AdminAlreadyDecided(userID, result.NewStatus))
		return
	case err != nil:
		d.log.Error("failed to apply decision", slog.Int64("user_id", userID),
			slog.String("action", string(action)), sl.Err(err))
		d.editAdmin(ctx, chatID, messageID, originalText+messages.AdminDecisionFailed(userID))
		return
	}

	approved := result.NewStatus == models.StatusApproved
	kind := messages.KindRejected
	params := messages.Params{}
	if approved {
		kind = messages.KindApproved
		params.RenewalDate = result.RenewalDate.Format(messages.DateFormat)
	}

	notified := true
	text := messages.Render(kind, result.Member.Language, params)
	if err := d.tg.SendMarkup(ctx, userID, text, telegram.MainMenuKeyboard()); err != nil {
		notified = false
		metrics.NotificationsFailed.WithLabelValues("decision").Inc()
		d.log.Error("failed to notify member of decision", slog.Int64("user_id", userID), sl.Err(err))
	}

	suffix := messages.DecisionSuffix(approved, cb.From.FirstName, notified)
	d.editAdmin(ctx, chatID, messageID, originalText+suffix)
}

// reply отправляет участнику ответ сервиса регистрации вместе с клавиатурой,
// соответствующей типу сообщения.
func (d *Dispatcher) reply(ctx context.Context, userID int64, reply regservice.Reply) {
	if reply.Kind == messages.KindNone {
		return
	}
	text := messages.Render(reply.Kind, reply.Lang, reply.Params)

	var markup any
	switch reply.Kind {
	case messages.KindWelcome:
		markup = telegram.LanguageKeyboard()
	case messages.KindChoosePayment:
		markup = telegram.PaymentKeyboard()
	case messages.KindCancelled:
		markup = telegram.RemoveKeyboard()
	case messages.KindPendingApproval, messages.KindAlreadyActive:
		markup = telegram.MainMenuKeyboard()
	}

	var err error
	if markup != nil {
		err = d.tg.SendMarkup(ctx, userID, text, markup)
	} else {
		err = d.tg.SendText(ctx, userID, text)
	}
	if err != nil {
		d.log.Error("failed to send reply", slog.Int64("user_id", userID), sl.Err(err))
	}
}

// edit заменяет текст сообщения с кнопками на ответ следующего шага.
func (d *Dispatcher) edit(ctx context.Context, cb *tgbotapi.CallbackQuery, reply regservice.Reply) {
	text := messages.Render(reply.Kind, reply.Lang, reply.Params)
	if err := d.tg.EditText(ctx, cb.Message.Chat.ID, cb.Message.MessageID, text); err != nil {
		d.log.Error("failed to edit message", slog.Int64("user_id", cb.From.ID), sl.Err(err))
	}
}

func (d *Dispatcher) editAdmin(ctx context.Context, chatID int64, messageID int, text string) {
	if err := d.tg.EditText(ctx, chatID, messageID, text); err != nil {
		d.log.Error("failed to edit admin message", slog.Int64("chat_id", chatID), sl.Err(err))
	}
}

func (d *Dispatcher) send(ctx context.Context, userID int64, text string) {
	if err := d.tg.SendText(ctx, userID, text); err != nil {
		d.log.Error("failed to send message", slog.Int64("user_id", userID), sl.Err(err))
	}
}

func (d *Dispatcher) sendMenu(ctx context.Context, userID int64, text string) {
	if err := d.tg.SendMarkup(ctx, userID, text, telegram.MainMenuKeyboard()); err != nil {
		d.log.Error("failed to send message", slog.Int64("user_id", userID), sl.Err(err))
	}
}
