package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"telegram-fasting-tracker/internal/handlers"
	"telegram-fasting-tracker/internal/scheduler"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				if err := a.cfg.RequireToken(); err != nil {
					return err
				}
				bot, err := tgbotapi.NewBotAPI(a.cfg.TelegramToken)
				if err != nil {
					return fmt.Errorf("connect to telegram: %w", err)
				}
				a.log.Info("bot authorized", "account", bot.Self.UserName)
				if _, err := bot.Request(tgbotapi.NewSetMyCommands(handlers.Commands()...)); err != nil {
					a.log.Warn("register commands failed", "error", err)
				}

				h := handlers.NewHandler(bot, a.db, a.sessions, a.clock, a.cfg.Location, a.log)
				s, err := scheduler.Start(&scheduler.Runner{
					DB:       a.db,
					Sessions: a.sessions,
					Notifier: h,
					Clock:    a.clock,
					Log:      a.log,
				}, a.cfg.TickInterval)
				if err != nil {
					return err
				}
				defer func() {
					if err := s.Shutdown(); err != nil {
						a.log.Error("scheduler shutdown failed", "error", err)
					}
				}()

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				updateConfig := tgbotapi.NewUpdate(0)
				updateConfig.Timeout = 60
				updates := bot.GetUpdatesChan(updateConfig)
				go func() {
					<-ctx.Done()
					bot.StopReceivingUpdates()
				}()

				a.log.Info("listening for updates", "tick", a.cfg.TickInterval)
				h.Listen(ctx, updates)
				a.log.Info("shutting down")
				return nil
			})
		},
	}
}
