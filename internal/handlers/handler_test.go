package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"

	"telegram-fasting-tracker/internal/messages"
	"telegram-fasting-tracker/internal/models"
	"telegram-fasting-tracker/internal/session"
	"telegram-fasting-tracker/internal/storage"
)

const chat int64 = 42

// fakeBot records everything the handler sends.
type fakeBot struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	sendErr  error
	reqErr   error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if b.sendErr != nil {
		return tgbotapi.Message{}, b.sendErr
	}
	b.sent = append(b.sent, c)
	b.nextID++
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if b.reqErr != nil {
		return nil, b.reqErr
	}
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) lastText(t *testing.T) string {
	t.Helper()
	if len(b.sent) == 0 {
		t.Fatalf("nothing sent")
	}
	msg, ok := b.sent[len(b.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("last sent is %T", b.sent[len(b.sent)-1])
	}
	return msg.Text
}

type fixture struct {
	h     *Handler
	bot   *fakeBot
	db    *storage.DB
	clock *clockwork.FakeClock
	ctx   context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("storage.New failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	bot := &fakeBot{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	sessions := session.New(db, log).WithArchive(db)
	h := NewHandler(bot, db, sessions, clock, time.UTC, log)
	return &fixture{h: h, bot: bot, db: db, clock: clock, ctx: context.Background()}
}

func (f *fixture) command(text string) {
	cmd := strings.Fields(text)[0]
	f.h.HandleMessage(f.ctx, &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chat},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	})
}

func (f *fixture) text(text string) {
	f.h.HandleMessage(f.ctx, &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: chat}})
}

func (f *fixture) callback(data string) {
	f.h.HandleCallback(f.ctx, &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: chat}},
	})
}

// ready accepts the disclaimer and connects wallet.
func (f *fixture) ready(t *testing.T, wallet string) {
	t.Helper()
	f.callback(messages.CbDisclaimerAccept)
	f.command("/wallet " + wallet)
}

func TestDisclaimerGatesCommands(t *testing.T) {
	f := setup(t)
	f.command("/status")
	if got := f.bot.lastText(t); got != messages.Disclaimer {
		t.Fatalf("expected disclaimer, got %q", got)
	}
	f.callback(messages.CbDisclaimerAccept)
	if got := f.bot.lastText(t); !strings.HasPrefix(got, "Main menu") {
		t.Fatalf("expected menu, got %q", got)
	}
	if len(f.bot.requests) == 0 {
		t.Fatalf("callback was not answered")
	}
	f.command("/status")
	if got := f.bot.lastText(t); got != messages.NoWallet() {
		t.Fatalf("expected no-wallet text, got %q", got)
	}
}

func TestStartNowAndStatus(t *testing.T) {
	f := setup(t)
	f.ready(t, "walletA")
	f.callback(messages.CbStartNow)
	if got := f.bot.lastText(t); !strings.HasPrefix(got, "Fast started") {
		t.Fatalf("got %q", got)
	}

	f.clock.Advance(4 * time.Hour)
	f.command("/status")
	got := f.bot.lastText(t)
	if !strings.Contains(got, "✅ Anabolic") || !strings.Contains(got, "elapsed 4h 0m") {
		t.Fatalf("status:\n%s", got)
	}
}

func TestStartWhileActiveRequiresReset(t *testing.T) {
	f := setup(t)
	f.ready(t, "walletA")
	f.callback(messages.CbStartNow)
	f.command("/fast")
	if got := f.bot.lastText(t); !strings.Contains(got, "Reset it first") {
		t.Fatalf("got %q", got)
	}
	f.callback(messages.CbStartNow)
	if got := f.bot.lastText(t); !strings.Contains(got, "Reset it first") {
		t.Fatalf("got %q", got)
	}
}

func TestPickStartFlow(t *testing.T) {
	f := setup(t)
	f.ready(t, "walletA")

	f.command("/fast")
	f.callback(messages.CbStartConfirm) // nothing picked yet
	if got := f.bot.requests[len(f.bot.requests)-1].(tgbotapi.CallbackConfig).Text; got != "Pick a start time first" {
		t.Fatalf("confirm without selection answered %q", got)
	}
	if f.h.Sessions.Load(f.ctx, "walletA") != nil {
		t.Fatalf("confirm without selection started a fast")
	}

	f.callback(messages.CbStartPick)
	f.callback(messages.CbDayToday)
	f.text("25:00")
	if got := f.bot.lastText(t); got != "time must be HH:MM" {
		t.Fatalf("got %q", got)
	}
	f.text("13:00")
	if got := f.bot.lastText(t); !strings.Contains(got, "can't be in the future") {
		t.Fatalf("got %q", got)
	}
	f.text("08:00")
	if got := f.bot.lastText(t); got != "Start your fast at Mon, Jan 1 08:00?" {
		t.Fatalf("got %q", got)
	}
	f.callback(messages.CbStartConfirm)

	s := f.h.Sessions.Load(f.ctx, "walletA")
	if s == nil || !s.StartTime.Equal(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("session = %+v", s)
	}
	if st, _ := f.db.GetUserState(f.ctx, chat); st != models.ChatIdle {
		t.Fatalf("state left as %q", st)
	}
}

func TestPickDayByText(t *testing.T) {
	f := setup(t)
	f.ready(t, "walletA")
	f.callback(messages.CbStartPick)
	f.text("31.12.2023")
	if got := f.bot.lastText(t); got != "date must be YYYY-MM-DD, today or yesterday" {
		t.Fatalf("got %q", got)
	}
	f.text("2023-12-31")
	f.text("22:15")
	f.callback(messages.CbStartConfirm)
	s := f.h.Sessions.Load(f.ctx, "walletA")
	if s == nil || !s.StartTime.Equal(time.Date(2023, 12, 31, 22, 15, 0, 0, time.UTC)) {
		t.Fatalf("session = %+v", s)
	}
}

func TestWalletSwitchShowsNewWalletState(t *testing.T) {
	f := setup(t)
	f.ready(t, "walletA")
	f.callback(messages.CbStartNow)
	f.clock.Advance(5 * time.Hour)

	f.command("/wallet walletB")
	if got := f.bot.lastText(t); !strings.Contains(got, messages.NoSession("walletB")) {
		t.Fatalf("switch showed %q", got)
	}
	f.command("/status")
	if got := f.bot.lastText(t); got != messages.NoSession("walletB") {
		t.Fatalf("status for B = %q", got)
	}

	f.command("/wallet walletA")
	if got := f.bot.lastText(t); !strings.Contains(got, "elapsed 5h 0m") {
		t.Fatalf("switch back lost A's fast: %q", got)
	}
}

func TestWalletPrompt(t *testing.T) {
	f := setup(t)
	f.callback(messages.CbDisclaimerAccept)
	f.command("/wallet")
	f.text("two words")
	if got := f.bot.lastText(t); got != errBadWallet.Error() {
		t.Fatalf("got %q", got)
	}
	f.command("/wallet")
	f.text("walletC")
	if w, _ := f.db.GetWallet(f.ctx, chat); w != "walletC" {
		t.Fatalf("wallet = %q", w)
	}
}

func TestResetFlow(t *testing.T) {
	f := setup(t)
	f.ready(t, "walletA")
	f.command("/reset")
	if got := f.bot.lastText(t); got != "Nothing to reset." {
		t.Fatalf("got %q", got)
	}

	f.callback(messages.CbStartNow)
	f.clock.Advance(13 * time.Hour)
	f.text(messages.MenuReset)
	if got := f.bot.lastText(t); got != "End the current fast?" {
		t.Fatalf("got %q", got)
	}
	f.callback(messages.CbResetConfirm)
	if got := f.bot.lastText(t); got != "Fast ended after 13h 0m." {
		t.Fatalf("got %q", got)
	}
	if f.h.Sessions.Load(f.ctx, "walletA") != nil {
		t.Fatalf("session survived reset")
	}
	f.command("/history")
	if got := f.bot.lastText(t); !strings.Contains(got, "13h 0m · Catabolic") {
		t.Fatalf("history = %q", got)
	}
}

func TestZoneCommands(t *testing.T) {
	f := setup(t)
	f.callback(messages.CbDisclaimerAccept)
	f.command("/zone deep autophagy")
	if got := f.bot.lastText(t); !strings.HasPrefix(got, "Deep Autophagy · 24h") {
		t.Fatalf("got %q", got)
	}
	f.command("/zone keto")
	if got := f.bot.lastText(t); !strings.HasPrefix(got, "Unknown zone") {
		t.Fatalf("got %q", got)
	}
	f.text(messages.MenuZones)
	if got := f.bot.lastText(t); !strings.HasPrefix(got, "Fasting zones:") {
		t.Fatalf("got %q", got)
	}
}

func TestLiveStatusRefresh(t *testing.T) {
	f := setup(t)
	f.ready(t, "walletA")
	f.callback(messages.CbStartNow)
	f.command("/live")
	liveID := f.bot.nextID

	f.clock.Advance(time.Hour)
	if err := f.h.RefreshLive(f.ctx, chat, "walletA"); err != nil {
		t.Fatalf("RefreshLive failed: %v", err)
	}
	edit, ok := f.bot.requests[len(f.bot.requests)-1].(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("expected an edit, got %T", f.bot.requests[len(f.bot.requests)-1])
	}
	if edit.MessageID != liveID || !strings.Contains(edit.Text, "elapsed 1h 0m") {
		t.Fatalf("edit = %d %q", edit.MessageID, edit.Text)
	}

	f.bot.reqErr = errors.New("Bad Request: message is not modified")
	if err := f.h.RefreshLive(f.ctx, chat, "walletA"); err != nil {
		t.Fatalf("unchanged message should not fail: %v", err)
	}
	f.bot.reqErr = errors.New("Bad Request: message to edit not found")
	_ = f.h.RefreshLive(f.ctx, chat, "walletA")
	if _, ok, _ := f.db.Get(f.ctx, liveKey(chat)); ok {
		t.Fatalf("dead live message was not forgotten")
	}
}

func TestSaveFailureIsReported(t *testing.T) {
	f := setup(t)
	f.ready(t, "walletA")
	f.db.Close()
	f.callback(messages.CbStartNow)
	// the wallet lookup fails too, so the user is asked to connect again
	if got := f.bot.lastText(t); got != messages.NoWallet() && got != "Could not save your fast, try again." {
		t.Fatalf("got %q", got)
	}
}

func TestNotifyZones(t *testing.T) {
	f := setup(t)
	if err := f.h.NotifyZones(f.ctx, chat, nil); err != nil || len(f.bot.sent) != 0 {
		t.Fatalf("empty notify sent something")
	}
	z := models.ZoneDefinition{Name: "Anabolic", ThresholdHours: 4}
	if err := f.h.NotifyZones(f.ctx, chat, []models.ZoneProgress{{Zone: z, IsCompleted: true}}); err != nil {
		t.Fatalf("NotifyZones failed: %v", err)
	}
	if got := f.bot.lastText(t); !strings.HasPrefix(got, "🎉 Zone reached: Anabolic") {
		t.Fatalf("got %q", got)
	}
	f.bot.sendErr = errors.New("blocked by user")
	if err := f.h.NotifyZones(f.ctx, chat, []models.ZoneProgress{{Zone: z}}); err == nil {
		t.Fatalf("expected send error")
	}
}
