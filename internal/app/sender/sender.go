// Package sender собирает процесс доставки уведомлений: потребители
// очередей RabbitMQ и telegram-клиент для отправки сообщений.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/godlycrypto/referral-bot/internal/config"
	"github.com/godlycrypto/referral-bot/internal/rabbitmq"
	senderservice "github.com/godlycrypto/referral-bot/internal/services/sender"
	"github.com/godlycrypto/referral-bot/internal/telegram"
)

// App процесс доставки уведомлений.
type App struct {
	sender *senderservice.SenderService
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger
}

// New собирает зависимости процесса доставки.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}

	tg, err := telegram.New(cfg.TelegramToken, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		sender: senderservice.NewSenderService(tg, cfg.AdminChatID, logger),
		conn:   conn,
		ch:     ch,
		logger: logger,
	}, nil
}

// Run подписывается на очереди уведомлений и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.EarningsQueue, a.sender.SendEarningsNotification); err != nil {
		return err
	}
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.ReportQueue, a.sender.SendAdminReport); err != nil {
		return err
	}

	<-ctx.Done()
	a.logger.Info("shutting down sender gracefully")
	_ = a.ch.Close()
	_ = a.conn.Close()
	return nil
}
