package telegram

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
	log zerolog.Logger
}

// NewBot connects to Telegram, registers webhookURL and wires the handlers.
func NewBot(token, webhookURL string, analyzer Analyzer, history History, narrator Narrator, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	// set webhook
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	log = log.With().Str("component", "telegram").Logger()
	log.Info().Str("url", webhookURL).Str("bot", api.Self.UserName).Msg("webhook set")

	return &Bot{api: api, h: NewHandlers(api, analyzer, history, narrator, log), log: log}, nil
}

// WebhookHandler returns the HTTP handler registered at /telegram/webhook.
func (b *Bot) WebhookHandler() http.Handler {
	return webhookHandler(b.h, b.log)
}

func webhookHandler(h *Handlers, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		if m := update.Message; m != nil && m.Chat != nil {
			log.Debug().Int64("chat_id", m.Chat.ID).Str("text", m.Text).Msg("webhook message")
			go h.HandleMessage(m)
		} else {
			log.Debug().Int("update_id", update.UpdateID).Msg("non-message update received")
		}
		w.WriteHeader(http.StatusOK)
	}
}
