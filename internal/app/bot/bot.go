// Package bot собирает основной процесс: telegram-транспорт, хранилище,
// кеш, сервисы диалога и служебный http-сервер.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/godlycrypto/referral-bot/internal/cache"
	"github.com/godlycrypto/referral-bot/internal/config"
	"github.com/godlycrypto/referral-bot/internal/migrations"
	adminservice "github.com/godlycrypto/referral-bot/internal/services/admin"
	profileservice "github.com/godlycrypto/referral-bot/internal/services/profile"
	referralservice "github.com/godlycrypto/referral-bot/internal/services/referral"
	regservice "github.com/godlycrypto/referral-bot/internal/services/registration"
	"github.com/godlycrypto/referral-bot/internal/storage/repository"
	"github.com/godlycrypto/referral-bot/internal/telegram"
)

// draftTTL время жизни заброшенного черновика регистрации.
const draftTTL = 24 * time.Hour

// App основной процесс бота.
type App struct {
	dispatcher *Dispatcher
	opsServer  *http.Server
	db         *repository.Storage
	drafts     *regservice.DraftStore
	logger     *slog.Logger
}

// New собирает зависимости процесса бота.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	tg, err := telegram.New(cfg.TelegramToken, logger)
	if err != nil {
		return nil, err
	}

	drafts := regservice.NewDraftStore(draftTTL)
	registrationService := regservice.NewRegistrationService(db, drafts, cfg.SubscriptionFee, logger)
	adminService := adminservice.NewAdminService(db, cacheRedis, cfg.RenewalDay, logger)
	referralService := referralservice.NewReferralService(db, cacheRedis, cfg.ReferralReward, cfg.RenewalDay, logger)
	profileService := profileservice.NewProfileService(db, logger)

	dispatcher := NewDispatcher(tg, registrationService, adminService, referralService,
		profileService, cfg.AdminChatID, logger)

	srv := &http.Server{
		Addr:         cfg.OpsServer.Address,
		Handler:      NewRouter(),
		ReadTimeout:  cfg.OpsServer.Timeout,
		WriteTimeout: cfg.OpsServer.Timeout,
		IdleTimeout:  cfg.OpsServer.IdleTimeout,
	}

	return &App{
		dispatcher: dispatcher,
		opsServer:  srv,
		db:         db,
		drafts:     drafts,
		logger:     logger,
	}, nil
}

// Run запускает обработку обновлений и служебный http-сервер,
// завершается по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	go a.drafts.Sweep(ctx.Done(), time.Hour)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("ops server starting on", slog.String("address", a.opsServer.Addr))
		err := a.opsServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	go a.dispatcher.Run(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down bot gracefully")
		err := a.opsServer.Shutdown(timeoutCtx)
		_ = a.db.DB.Close()
		return err
	}
}
