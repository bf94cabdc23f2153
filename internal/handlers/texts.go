package handlers

import (
	"context"
	"strings"
	"time"

	"telegram-fasting-tracker/internal/messages"
	"telegram-fasting-tracker/internal/models"
	"telegram-fasting-tracker/internal/utils"
)

func (h *Handler) HandleText(ctx context.Context, chatID int64, text string) {
	switch text {
	case messages.MenuStatus:
		h.HandleCommand(ctx, chatID, "status", "")
		return
	case messages.MenuZones:
		h.HandleCommand(ctx, chatID, "zones", "")
		return
	case messages.MenuStart:
		h.HandleCommand(ctx, chatID, "fast", "")
		return
	case messages.MenuReset:
		h.HandleCommand(ctx, chatID, "reset", "")
		return
	}

	state, _ := h.DB.GetUserState(ctx, chatID)
	switch {
	case state == models.ChatWaitWallet:
		h.connect(ctx, chatID, text)
	case state == models.ChatWaitStartDate:
		h.pickDay(ctx, chatID, text)
	case strings.HasPrefix(string(state), string(models.ChatWaitStartTime)):
		h.pickTime(ctx, chatID, strings.TrimPrefix(string(state), string(models.ChatWaitStartTime)), text)
	}
}

func (h *Handler) pickDay(ctx context.Context, chatID int64, text string) {
	day, err := utils.ParseDay(text, h.Clock.Now(), h.Loc)
	if err != nil {
		h.send(chatID, utils.ErrBadDate.Error())
		return
	}
	_ = h.DB.SetUserState(ctx, chatID, models.ChatWaitStartTime+models.ChatState(day.Format("2006-01-02")))
	h.send(chatID, "What time did you start? (HH:MM)")
}

func (h *Handler) pickTime(ctx context.Context, chatID int64, date, text string) {
	day, err := time.ParseInLocation("2006-01-02", date, h.Loc)
	if err != nil {
		_ = h.DB.SetUserState(ctx, chatID, models.ChatIdle)
		h.send(chatID, "Something went wrong, start over with /fast.")
		return
	}
	start, err := utils.CombineDateTime(day, text)
	if err != nil {
		h.send(chatID, utils.ErrBadTime.Error())
		return
	}
	if start.After(h.Clock.Now()) {
		h.send(chatID, "The start time can't be in the future. Send another time (HH:MM).")
		return
	}
	_ = h.DB.SetUserState(ctx, chatID, models.ChatConfirmStart+models.ChatState(start.Format(time.RFC3339)))
	_, _ = h.sendKB(chatID, messages.StartConfirm(start, h.Loc), messages.ConfirmStartKB)
}
