package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ivanoskov/budget_bot/internal/bot"
)

func newTelegramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram channel in long polling mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, cleanup, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if a.Config.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}

			b, err := bot.NewBot(a.Config.TelegramToken, a.Tracker, a.AI, a.Logger)
			if err != nil {
				return err
			}
			a.Logger.Info("telegram bot started")
			return b.Start(ctx)
		},
	}
}
