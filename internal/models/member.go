// Package models содержит доменную модель участника реферальной программы:
// анкету участника, статусы заявки и вспомогательные типы для подсчёта
// реферальных начислений.
package models

import "time"

// Language язык общения с участником, выбирается один раз при регистрации.
type Language string

// Поддерживаемые языки.
const (
	LanguageFR Language = "fr"
	LanguageEN Language = "en"
)

// PaymentMethod способ оплаты абонентской платы.
type PaymentMethod string

// Поддерживаемые способы оплаты.
const (
	PaymentMTN    PaymentMethod = "mtn"
	PaymentOrange PaymentMethod = "orange"
)

// Status статус заявки участника. Переходы только Pending -> Approved
// или Pending -> Rejected, обратных переходов нет.
type Status string

// Возможные статусы заявки.
const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Member представляет анкету участника, одна запись на telegram-аккаунт.
type Member struct {
	UserID                  int64         // Идентификатор пользователя Telegram, первичный ключ
	Username                string        // Публичный username на момент регистрации, может быть пустым
	Language                Language      // Язык общения
	FullName                string        // Полное имя, свободный текст
	Phone                   string        // Телефон, свободный текст
	Email                   string        // Почта, приводится к нижнему регистру при вводе
	Godfather               *int64        // Идентификатор пригласившего участника, nil — спонсора нет
	PaymentMethod           PaymentMethod // Выбранный способ оплаты
	TransactionID           string        // Номер транзакции со слов участника, проверяется вручную
	Status                  Status        // Статус заявки
	RegistrationDate        time.Time     // Момент отправки заявки, UTC
	SubscriptionStartDate   *time.Time    // Заполняется только при одобрении
	SubscriptionRenewalDate *time.Time    // Дата следующего продления, только при одобрении
}

// ReferralFilter описывает фильтр подсчёта приглашённых участников.
// Нулевые границы периода означают подсчёт за всё время.
type ReferralFilter struct {
	Godfather      int64
	OnlyApproved   bool
	RegisteredFrom *time.Time
	RegisteredTo   *time.Time
}

// EarningsStats агрегированные реферальные начисления спонсора.
type EarningsStats struct {
	AllTimeCount    int       `json:"all_time_count"`
	PeriodCount     int       `json:"period_count"`
	AllTimeEarnings int       `json:"all_time_earnings"`
	PeriodEarnings  int       `json:"period_earnings"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
}

// EarningsNotification сообщение о начислении, публикуется планировщиком
// в очередь notification.earnings.
type EarningsNotification struct {
	SponsorID int64 `json:"sponsor_id"`
	Count     int   `json:"count"`
	Amount    int   `json:"amount"`
}

// ReportEntry строка месячного отчёта по одному спонсору.
type ReportEntry struct {
	SponsorID int64  `json:"sponsor_id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Count     int    `json:"count"`
	Amount    int    `json:"amount"`
}

// AdminReport сводный месячный отчёт для администратора, публикуется
// планировщиком в очередь notification.report.
type AdminReport struct {
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	Entries     []ReportEntry `json:"entries"`
	TotalPayout int           `json:"total_payout"`
}
