package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"stockTrendPCA/internal/openai"
	"stockTrendPCA/internal/server"
	"stockTrendPCA/internal/telegram"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when configured, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.wire(ctx); err != nil {
				return err
			}

			var webhook http.Handler
			if a.cfg.TelegramEnabled() {
				var narrator telegram.Narrator
				if a.cfg.OpenAIKey != "" {
					narrator = openai.NewNarrator(a.cfg.OpenAIKey)
				}
				bot, err := telegram.NewBot(a.cfg.TelegramToken, a.cfg.WebhookPublicURL, a.service, a.store, narrator, a.log)
				if err != nil {
					return err
				}
				webhook = bot.WebhookHandler()
			} else {
				a.log.Info().Msg("telegram disabled: TELEGRAM_BOT_TOKEN not set")
			}

			srv := server.New(server.Config{
				Log:      a.log,
				Port:     a.cfg.Port,
				Analyzer: a.service,
				History:  a.store,
				Metrics:  a.metrics,
				Webhook:  webhook,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}
