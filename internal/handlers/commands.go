package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-fasting-tracker/internal/messages"
	"telegram-fasting-tracker/internal/models"
	"telegram-fasting-tracker/internal/progress"
	"telegram-fasting-tracker/internal/zones"
)

const (
	liveKeyPrefix  = "live_status:"
	maxWalletLen   = 128
	historyEntries = 10
)

var errBadWallet = errors.New("wallet address must be a single word up to 128 characters")

func (h *Handler) HandleCommand(ctx context.Context, chatID int64, cmd, args string) {
	if cmd != "start" && !h.Sessions.DisclaimerAccepted(ctx, scope(chatID)) {
		h.sendDisclaimer(chatID)
		return
	}
	switch cmd {
	case "start":
		h.HandleStart(ctx, chatID)
	case "wallet":
		h.HandleWallet(ctx, chatID, args)
	case "disconnect":
		h.HandleDisconnect(ctx, chatID)
	case "fast":
		h.HandleFast(ctx, chatID)
	case "status":
		h.HandleStatus(ctx, chatID)
	case "live":
		h.HandleLive(ctx, chatID)
	case "zones":
		h.send(chatID, messages.ZonesOverview(zones.List()))
	case "zone":
		h.HandleZone(chatID, args)
	case "reset":
		h.HandleReset(ctx, chatID)
	case "history":
		h.HandleHistory(ctx, chatID)
	default:
		h.send(chatID, "Unknown command. Try /status, /fast, /zones or /reset.")
	}
}

// ---------------- /start --------------------
func (h *Handler) HandleStart(ctx context.Context, chatID int64) {
	if !h.Sessions.DisclaimerAccepted(ctx, scope(chatID)) {
		h.sendDisclaimer(chatID)
		return
	}
	h.sendMenu(ctx, chatID)
}

func (h *Handler) sendDisclaimer(chatID int64) {
	_, _ = h.sendKB(chatID, messages.Disclaimer, messages.DisclaimerKB)
}

func (h *Handler) sendMenu(ctx context.Context, chatID int64) {
	text := "Main menu"
	if w, _ := h.DB.GetWallet(ctx, chatID); w == "" {
		text += "\n\n" + messages.NoWallet()
	}
	_, _ = h.sendKB(chatID, text, messages.MainMenu)
}

func (h *Handler) sendNoWallet(chatID int64) {
	h.send(chatID, messages.NoWallet())
}

// ---------------- wallet --------------------
func (h *Handler) HandleWallet(ctx context.Context, chatID int64, args string) {
	if strings.TrimSpace(args) == "" {
		_ = h.DB.SetUserState(ctx, chatID, models.ChatWaitWallet)
		h.send(chatID, "Send your wallet address.")
		return
	}
	h.connect(ctx, chatID, args)
}

// connect switches the chat to walletID and shows that wallet's own state.
func (h *Handler) connect(ctx context.Context, chatID int64, walletID string) {
	walletID = strings.TrimSpace(walletID)
	if walletID == "" || len(walletID) > maxWalletLen || strings.ContainsAny(walletID, " \t\n") {
		h.send(chatID, errBadWallet.Error())
		return
	}
	if err := h.DB.SetWallet(ctx, chatID, walletID); err != nil {
		h.Log.Error("save wallet failed", "chat", chatID, "error", err)
		h.send(chatID, "Could not connect the wallet, try again.")
		return
	}
	_ = h.DB.SetUserState(ctx, chatID, models.ChatIdle)
	// live message belonged to the previous wallet
	_ = h.DB.Delete(ctx, liveKey(chatID))
	h.Log.Info("wallet connected", "chat", chatID, "wallet", walletID)

	now := h.Clock.Now()
	text := "Connected " + messages.ShortWallet(walletID) + ".\n\n" +
		messages.Status(walletID, h.Sessions.Load(ctx, walletID), zones.List(), now, h.Loc)
	h.send(chatID, text)
}

func (h *Handler) HandleDisconnect(ctx context.Context, chatID int64) {
	if err := h.DB.ClearChat(ctx, chatID); err != nil {
		h.Log.Error("disconnect failed", "chat", chatID, "error", err)
	}
	_ = h.DB.Delete(ctx, liveKey(chatID))
	h.send(chatID, "Wallet disconnected. Your fast keeps running and comes back when you reconnect.")
}

// ---------------- fast ----------------------
func (h *Handler) HandleFast(ctx context.Context, chatID int64) {
	w, ok := h.wallet(ctx, chatID)
	if !ok {
		return
	}
	if s := h.Sessions.Load(ctx, w); s != nil {
		h.send(chatID, "A fast is already running, "+progress.FormatSince(s.StartTime, h.Loc)+
			". Reset it first with /reset.")
		return
	}
	_, _ = h.sendKB(chatID, "When did your fast start?", messages.StartKB)
}

func (h *Handler) HandleStatus(ctx context.Context, chatID int64) {
	w, ok := h.wallet(ctx, chatID)
	if !ok {
		return
	}
	h.send(chatID, h.statusText(ctx, w))
}

func (h *Handler) statusText(ctx context.Context, walletID string) string {
	return messages.Status(walletID, h.Sessions.Load(ctx, walletID), zones.List(), h.Clock.Now(), h.Loc)
}

// HandleLive sends a status message the scheduler keeps editing.
func (h *Handler) HandleLive(ctx context.Context, chatID int64) {
	w, ok := h.wallet(ctx, chatID)
	if !ok {
		return
	}
	m, err := h.Bot.Send(tgbotapi.NewMessage(chatID, h.statusText(ctx, w)))
	if err != nil {
		h.Log.Error("send live status failed", "chat", chatID, "error", err)
		return
	}
	if err := h.DB.Set(ctx, liveKey(chatID), strconv.Itoa(m.MessageID)); err != nil {
		h.Log.Error("save live status failed", "chat", chatID, "error", err)
	}
}

func (h *Handler) HandleZone(chatID int64, name string) {
	if strings.TrimSpace(name) == "" {
		h.send(chatID, messages.ZonesOverview(zones.List()))
		return
	}
	z, ok := zones.ByName(name)
	if !ok {
		h.send(chatID, "Unknown zone "+strconv.Quote(strings.TrimSpace(name))+". See /zones.")
		return
	}
	h.send(chatID, messages.ZoneCard(z))
}

func (h *Handler) HandleReset(ctx context.Context, chatID int64) {
	w, ok := h.wallet(ctx, chatID)
	if !ok {
		return
	}
	if h.Sessions.Load(ctx, w) == nil {
		h.send(chatID, messages.ResetDone(nil, h.Clock.Now()))
		return
	}
	_, _ = h.sendKB(chatID, "End the current fast?", messages.ResetKB)
}

func (h *Handler) HandleHistory(ctx context.Context, chatID int64) {
	w, ok := h.wallet(ctx, chatID)
	if !ok {
		return
	}
	hs, err := h.DB.ListHistory(ctx, w, historyEntries)
	if err != nil {
		h.Log.Error("list history failed", "wallet", w, "error", err)
	}
	h.send(chatID, messages.History(hs, h.Loc))
}

func liveKey(chatID int64) string {
	return liveKeyPrefix + scope(chatID)
}
