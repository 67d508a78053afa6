package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivanoskov/budget_bot/internal/app"
	"github.com/ivanoskov/budget_bot/internal/config"
	"github.com/ivanoskov/budget_bot/internal/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bot",
		Short:         "Daily budget bot for WhatsApp and Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newTelegramCmd())
	return root
}

// bootstrap загружает конфигурацию, логгер и собирает приложение
func bootstrap(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	a, cleanup, err := app.New(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}

	log.Info("bot configured",
		zap.String("store", cfg.StoreBackend),
		zap.String("log_sink", cfg.LogSink),
		zap.Bool("signature_validation", cfg.TwilioValidateSignature),
	)

	return a, func() {
		cleanup()
		_ = log.Sync()
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
