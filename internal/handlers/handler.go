package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"

	"telegram-fasting-tracker/internal/session"
	"telegram-fasting-tracker/internal/storage"
)

// Bot is the part of *tgbotapi.BotAPI the handlers use.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler struct {
	Bot      Bot
	DB       *storage.DB
	Sessions *session.Store
	Clock    clockwork.Clock
	Loc      *time.Location
	Log      *slog.Logger
}

func NewHandler(bot Bot, db *storage.DB, sessions *session.Store, clock clockwork.Clock, loc *time.Location, log *slog.Logger) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Bot: bot, DB: db, Sessions: sessions, Clock: clock, Loc: loc, Log: log}
}

// Listen dispatches updates until ctx is done or the channel closes.
func (h *Handler) Listen(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		h.HandleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		h.HandleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if msg.IsCommand() {
		h.HandleCommand(ctx, chatID, msg.Command(), msg.CommandArguments())
		return
	}
	h.HandleText(ctx, chatID, msg.Text)
}

// Commands is the list registered with BotFather-style autocomplete.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Main menu"},
		{Command: "wallet", Description: "Connect a wallet"},
		{Command: "fast", Description: "Start a fast"},
		{Command: "status", Description: "Zone progress"},
		{Command: "live", Description: "Self-updating status"},
		{Command: "zones", Description: "All fasting zones"},
		{Command: "zone", Description: "Refeeding guidance for a zone"},
		{Command: "reset", Description: "End the current fast"},
		{Command: "history", Description: "Finished fasts"},
		{Command: "disconnect", Description: "Disconnect the wallet"},
	}
}

func (h *Handler) send(chatID int64, text string) {
	if _, err := h.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.Log.Error("send failed", "chat", chatID, "error", err)
	}
}

func (h *Handler) sendKB(chatID int64, text string, kb any) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	m, err := h.Bot.Send(msg)
	if err != nil {
		h.Log.Error("send failed", "chat", chatID, "error", err)
	}
	return m, err
}

// wallet returns the chat's connected wallet, telling the user when there is none.
func (h *Handler) wallet(ctx context.Context, chatID int64) (string, bool) {
	w, err := h.DB.GetWallet(ctx, chatID)
	if err != nil {
		h.Log.Error("read wallet failed", "chat", chatID, "error", err)
	}
	if w == "" {
		h.sendNoWallet(chatID)
		return "", false
	}
	return w, true
}

func scope(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
