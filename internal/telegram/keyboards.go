package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Префиксы callback-данных inline-кнопок.
const (
	LanguageCallbackPrefix = "lang_"
	PaymentCallbackPrefix  = "payment_"
	ApproveCallbackPrefix  = "approve_"
	RejectCallbackPrefix   = "reject_"
)

// LanguageKeyboard клавиатура выбора языка на входе в регистрацию.
func LanguageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇫🇷 Français", LanguageCallbackPrefix+"fr"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇬🇧 English", LanguageCallbackPrefix+"en"),
		),
	)
}

// PaymentKeyboard клавиатура выбора способа оплаты.
func PaymentKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📱 MTN Mobile Money", PaymentCallbackPrefix+"mtn"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍊 Orange Money", PaymentCallbackPrefix+"orange"),
		),
	)
}

// DecisionKeyboard кнопки Approve/Reject для администратора по одной заявке.
func DecisionKeyboard(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", fmt.Sprintf("%s%d", ApproveCallbackPrefix, userID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", fmt.Sprintf("%s%d", RejectCallbackPrefix, userID)),
		),
	)
}

// MainMenuKeyboard постоянная клавиатура с основными командами.
func MainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/myinfo"),
			tgbotapi.NewKeyboardButton("/referralstats"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/aboutus"),
			tgbotapi.NewKeyboardButton("/contactus"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// RemoveKeyboard убирает постоянную клавиатуру.
func RemoveKeyboard() tgbotapi.ReplyKeyboardRemove {
	return tgbotapi.NewRemoveKeyboard(false)
}
