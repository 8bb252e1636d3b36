package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/godlycrypto/referral-bot/internal/app/bot"
	"github.com/godlycrypto/referral-bot/internal/config"
	"github.com/godlycrypto/referral-bot/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting bot", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := bot.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init bot", sl.Err(err))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("bot stopped with error", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
