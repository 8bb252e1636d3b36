// Package telegram реализует транспорт бота поверх Bot API: отправку и
// редактирование сообщений, клавиатуры и получение обновлений. Исходящие
// сообщения проходят через ограничитель частоты, чтобы не упираться в
// лимиты Telegram при массовых рассылках.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Client обёртка над клиентом Bot API с ограничителем исходящих сообщений.
type Client struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
	log     *slog.Logger
}

// New создаёт клиент Bot API и проверяет токен.
func New(token string, log *slog.Logger) (*Client, error) {
	const op = "telegram.New"
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Client{
		api: api,
		// Глобальный лимит Telegram — около 30 сообщений в секунду.
		limiter: rate.NewLimiter(rate.Limit(25), 5),
		log:     log,
	}, nil
}

// Username возвращает username бота, используется для реферальных ссылок.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Updates возвращает канал обновлений long polling.
func (c *Client) Updates(timeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	return c.api.GetUpdatesChan(u)
}

// StopUpdates останавливает long polling.
func (c *Client) StopUpdates() {
	c.api.StopReceivingUpdates()
}

// SendText отправляет текстовое сообщение пользователю.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, chatID, text, nil)
}

// SendMarkup отправляет текстовое сообщение с клавиатурой.
func (c *Client) SendMarkup(ctx context.Context, chatID int64, text string, markup any) error {
	return c.send(ctx, chatID, text, markup)
}

func (c *Client) send(ctx context.Context, chatID int64, text string, markup any) error {
	const op = "telegram.SendText"
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EditText заменяет текст ранее отправленного сообщения.
func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	const op = "telegram.EditText"
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := c.api.Send(edit); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AnswerCallback подтверждает нажатие inline-кнопки.
func (c *Client) AnswerCallback(callbackID string) {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		c.log.Warn("failed to answer callback", slog.String("id", callbackID), slog.Any("err", err))
	}
}
