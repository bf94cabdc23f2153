package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-fasting-tracker/internal/messages"
	"telegram-fasting-tracker/internal/models"
	"telegram-fasting-tracker/internal/session"
)

func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	answer := ""

	switch cq.Data {
	case messages.CbDisclaimerAccept:
		h.handleAcceptDisclaimer(ctx, chatID)
	case messages.CbStartNow:
		if w, ok := h.wallet(ctx, chatID); ok {
			h.begin(ctx, chatID, w, h.Clock.Now())
		}
	case messages.CbStartPick:
		_ = h.DB.SetUserState(ctx, chatID, models.ChatWaitStartDate)
		_, _ = h.sendKB(chatID, "Which day did you start? Or send YYYY-MM-DD.", messages.DayKB)
	case messages.CbDayToday:
		h.pickDay(ctx, chatID, "today")
	case messages.CbDayYesterday:
		h.pickDay(ctx, chatID, "yesterday")
	case messages.CbStartConfirm:
		answer = h.handleConfirmStart(ctx, chatID)
	case messages.CbStartCancel:
		_ = h.DB.SetUserState(ctx, chatID, models.ChatIdle)
		h.send(chatID, "Cancelled.")
	case messages.CbResetConfirm:
		h.handleConfirmReset(ctx, chatID)
	case messages.CbResetCancel:
		answer = "Cancelled"
	}

	// always answer callback to remove 'loading...'
	if _, err := h.Bot.Request(tgbotapi.NewCallback(cq.ID, answer)); err != nil {
		h.Log.Debug("answer callback failed", "error", err)
	}
}

func (h *Handler) handleAcceptDisclaimer(ctx context.Context, chatID int64) {
	if err := h.Sessions.AcceptDisclaimer(ctx, scope(chatID)); err != nil {
		h.Log.Error("save disclaimer failed", "chat", chatID, "error", err)
	}
	h.sendMenu(ctx, chatID)
}

// handleConfirmStart is a no-op until a start time has been picked.
func (h *Handler) handleConfirmStart(ctx context.Context, chatID int64) string {
	st, _ := h.DB.GetUserState(ctx, chatID)
	raw, ok := strings.CutPrefix(string(st), string(models.ChatConfirmStart))
	if !ok {
		return "Pick a start time first"
	}
	start, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		_ = h.DB.SetUserState(ctx, chatID, models.ChatIdle)
		return "Pick a start time first"
	}
	w, ok := h.wallet(ctx, chatID)
	if !ok {
		return ""
	}
	_ = h.DB.SetUserState(ctx, chatID, models.ChatIdle)
	h.begin(ctx, chatID, w, start)
	return ""
}

func (h *Handler) begin(ctx context.Context, chatID int64, walletID string, start time.Time) {
	err := h.Sessions.Begin(ctx, walletID, start, h.Clock.Now())
	switch {
	case err == nil:
		h.Log.Info("fast started", "wallet", walletID, "start", start)
		h.send(chatID, messages.Started(start, h.Loc))
	case errors.Is(err, session.ErrSessionActive):
		h.send(chatID, "A fast is already running. Reset it first with /reset.")
	case errors.Is(err, session.ErrStartInFuture):
		h.send(chatID, "The start time can't be in the future.")
	default:
		h.Log.Error("save fast failed", "wallet", walletID, "error", err)
		h.send(chatID, "Could not save your fast, try again.")
	}
}

func (h *Handler) handleConfirmReset(ctx context.Context, chatID int64) {
	w, ok := h.wallet(ctx, chatID)
	if !ok {
		return
	}
	now := h.Clock.Now()
	ended, err := h.Sessions.Reset(ctx, w, now)
	if err != nil {
		h.Log.Error("reset failed", "wallet", w, "error", err)
		h.send(chatID, "Could not reset the fast, try again.")
		return
	}
	_ = h.DB.Delete(ctx, liveKey(chatID))
	h.send(chatID, messages.ResetDone(ended, now))
}
