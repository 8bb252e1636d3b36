// Package scheduler собирает процесс месячного отчёта: хранилище,
// подключение к RabbitMQ и сервис, ждущий день продления.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/godlycrypto/referral-bot/internal/config"
	"github.com/godlycrypto/referral-bot/internal/rabbitmq"
	reportservice "github.com/godlycrypto/referral-bot/internal/services/report"
	"github.com/godlycrypto/referral-bot/internal/storage/repository"
)

// App процесс планировщика месячного отчёта.
type App struct {
	report *reportservice.ReportService
	conn   *amqp.Connection
	ch     *amqp.Channel
	db     *repository.Storage
	logger *slog.Logger
}

// New собирает зависимости планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	waitForDB(db, logger)

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}

	report := reportservice.NewReportService(db, rabbitmq.NewPublisher(ch),
		cfg.ReferralReward, cfg.RenewalDay, logger)

	return &App{
		report: report,
		conn:   conn,
		ch:     ch,
		db:     db,
		logger: logger,
	}, nil
}

// Run ждёт дни продления и запускает отчёты до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	go a.report.Run(ctx)

	<-ctx.Done()
	a.logger.Info("shutting down scheduler gracefully")
	_ = a.ch.Close()
	_ = a.conn.Close()
	_ = a.db.DB.Close()
	return nil
}

// waitForDB даёт мигрирующему процессу бота время создать схему.
func waitForDB(db *repository.Storage, logger *slog.Logger) {
	for i := 0; i < 10; i++ {
		if err := repository.CheckDatabaseReady(db); err == nil {
			return
		}
		logger.Info("database is not ready yet, waiting", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("database is still not ready, continuing anyway")
}
