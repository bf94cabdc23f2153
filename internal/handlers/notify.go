package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-fasting-tracker/internal/messages"
	"telegram-fasting-tracker/internal/models"
)

// NotifyZones announces zones the chat's fast has just completed.
func (h *Handler) NotifyZones(_ context.Context, chatID int64, reached []models.ZoneProgress) error {
	if len(reached) == 0 {
		return nil
	}
	if _, err := h.Bot.Send(tgbotapi.NewMessage(chatID, messages.ZonesReached(reached))); err != nil {
		return fmt.Errorf("send zone notification: %w", err)
	}
	return nil
}

// RefreshLive re-renders the chat's live status message, if it has one.
func (h *Handler) RefreshLive(ctx context.Context, chatID int64, walletID string) error {
	raw, ok, err := h.DB.Get(ctx, liveKey(chatID))
	if err != nil || !ok {
		return err
	}
	msgID, err := strconv.Atoi(raw)
	if err != nil {
		return h.DB.Delete(ctx, liveKey(chatID))
	}
	edit := tgbotapi.NewEditMessageText(chatID, msgID, h.statusText(ctx, walletID))
	if _, err := h.Bot.Request(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		if strings.Contains(err.Error(), "message to edit not found") {
			return h.DB.Delete(ctx, liveKey(chatID))
		}
		return fmt.Errorf("edit live status: %w", err)
	}
	return nil
}
