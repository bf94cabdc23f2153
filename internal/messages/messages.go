// Package messages renders bot texts and keyboards. Nothing here talks to telegram.
package messages

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-fasting-tracker/internal/models"
	"telegram-fasting-tracker/internal/progress"
)

const (
	CbDisclaimerAccept = "disclaimer_accept"
	CbStartNow         = "start_now"
	CbStartPick        = "start_pick"
	CbDayToday         = "day:today"
	CbDayYesterday     = "day:yesterday"
	CbStartConfirm     = "start_confirm"
	CbStartCancel      = "start_cancel"
	CbResetConfirm     = "reset_confirm"
	CbResetCancel      = "reset_cancel"

	MenuStatus = "Status"
	MenuZones  = "Zones"
	MenuStart  = "Start fast"
	MenuReset  = "Reset"

	barWidth = 10
)

const Disclaimer = "This bot is not medical advice. Extended fasting can be dangerous; " +
	"talk to a doctor first, especially for fasts beyond 24 hours."

var (
	DisclaimerKB = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("I understand", CbDisclaimerAccept),
		),
	)
	StartKB = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Now", CbStartNow),
			tgbotapi.NewInlineKeyboardButtonData("Pick time", CbStartPick),
		),
	)
	DayKB = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Today", CbDayToday),
			tgbotapi.NewInlineKeyboardButtonData("Yesterday", CbDayYesterday),
		),
	)
	ConfirmStartKB = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Confirm", CbStartConfirm),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", CbStartCancel),
		),
	)
	ResetKB = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, reset", CbResetConfirm),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", CbResetCancel),
		),
	)
	MainMenu = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(MenuStatus),
			tgbotapi.NewKeyboardButton(MenuZones),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(MenuStart),
			tgbotapi.NewKeyboardButton(MenuReset),
		),
	)
)

// ShortWallet abbreviates long addresses as "7xKX…sAsU".
func ShortWallet(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:4] + "…" + id[len(id)-4:]
}

func Bar(pct float64) string {
	n := int(pct / 100 * barWidth)
	if n < 0 {
		n = 0
	}
	if n > barWidth {
		n = barWidth
	}
	return strings.Repeat("▓", n) + strings.Repeat("░", barWidth-n)
}

func Hours(h float64) string {
	return fmt.Sprintf("%gh", h)
}

func NoWallet() string {
	return "No wallet connected. Send /wallet <address> to connect one."
}

func NoSession(walletID string) string {
	return fmt.Sprintf("No active fast for wallet %s. Use /fast to start one.", ShortWallet(walletID))
}

// Status renders the whole dashboard for a running fast, or the no-session text.
func Status(walletID string, s *models.FastingSession, zs []models.ZoneDefinition, now time.Time, loc *time.Location) string {
	if s == nil {
		return NoSession(walletID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Wallet %s\n", ShortWallet(walletID))
	fmt.Fprintf(&b, "%s\n%s\n\n", progress.FormatSince(s.StartTime, loc), progress.FormatElapsed(s.StartTime, now))
	for _, p := range progress.ComputeAll(zs, s.StartTime, now) {
		b.WriteString(zoneLine(p, now, loc))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func zoneLine(p models.ZoneProgress, now time.Time, loc *time.Location) string {
	if p.IsCompleted {
		return fmt.Sprintf("✅ %s (%s) %s 100%%", p.Zone.Name, Hours(p.Zone.ThresholdHours), Bar(100))
	}
	return fmt.Sprintf("⏳ %s (%s) %s %.0f%% · %s left · %s",
		p.Zone.Name, Hours(p.Zone.ThresholdHours), Bar(p.ProgressPercent), p.ProgressPercent,
		progress.FormatRemaining(p.Remaining), progress.FormatTarget(p.TargetTime, now, loc))
}

// ZoneCard is the static description of one zone with its refeeding guidance.
func ZoneCard(z models.ZoneDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s · %s\n%s\n", z.Name, Hours(z.ThresholdHours), z.BenefitSummary)
	g := z.Refeeding
	if len(g.RecommendedFoods) > 0 {
		fmt.Fprintf(&b, "\nBreak the fast with: %s", strings.Join(g.RecommendedFoods, ", "))
	}
	if len(g.FoodsToAvoid) > 0 {
		fmt.Fprintf(&b, "\nAvoid: %s", strings.Join(g.FoodsToAvoid, ", "))
	}
	if g.Notes != "" {
		fmt.Fprintf(&b, "\n%s", g.Notes)
	}
	return b.String()
}

func ZonesOverview(zs []models.ZoneDefinition) string {
	lines := make([]string, 0, len(zs)+1)
	lines = append(lines, "Fasting zones:")
	for _, z := range zs {
		lines = append(lines, fmt.Sprintf("• %s (%s): %s", z.Name, Hours(z.ThresholdHours), z.BenefitSummary))
	}
	lines = append(lines, "", "Send /zone <name> for refeeding guidance.")
	return strings.Join(lines, "\n")
}

// ZonesReached announces newly completed zones; guidance follows the highest one.
func ZonesReached(reached []models.ZoneProgress) string {
	if len(reached) == 0 {
		return ""
	}
	names := make([]string, len(reached))
	for i, p := range reached {
		names[i] = p.Zone.Name
	}
	top := reached[len(reached)-1].Zone
	return fmt.Sprintf("🎉 Zone reached: %s\n\n%s", strings.Join(names, ", "), ZoneCard(top))
}

func StartConfirm(start time.Time, loc *time.Location) string {
	return "Start your fast at " + start.In(loc).Format("Mon, Jan 2 15:04") + "?"
}

func Started(start time.Time, loc *time.Location) string {
	return "Fast started, " + progress.FormatSince(start, loc) + ". Send /status any time."
}

func ResetDone(ended *models.FastingSession, now time.Time) string {
	if ended == nil {
		return "Nothing to reset."
	}
	return "Fast ended after " + progress.FormatRemaining(now.Sub(ended.StartTime)) + "."
}

func History(hs []models.HistoryEntry, loc *time.Location) string {
	if len(hs) == 0 {
		return "No finished fasts yet."
	}
	lines := []string{"Recent fasts:"}
	for _, h := range hs {
		zone := h.ReachedZone
		if zone == "" {
			zone = "no zone"
		}
		lines = append(lines, fmt.Sprintf("• %s · %s · %s",
			h.StartedAt.In(loc).Format("Jan 2 15:04"), progress.FormatRemaining(h.Duration()), zone))
	}
	return strings.Join(lines, "\n")
}
