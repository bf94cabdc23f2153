package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"telegram-fasting-tracker/internal/models"
	"telegram-fasting-tracker/internal/progress"
	"telegram-fasting-tracker/internal/session"
	"telegram-fasting-tracker/internal/storage"
	"telegram-fasting-tracker/internal/zones"
)

// Notifier delivers tick results to a chat.
type Notifier interface {
	NotifyZones(ctx context.Context, chatID int64, reached []models.ZoneProgress) error
	RefreshLive(ctx context.Context, chatID int64, walletID string) error
}

type Runner struct {
	DB       *storage.DB
	Sessions *session.Store
	Notifier Notifier
	Clock    clockwork.Clock
	Log      *slog.Logger
}

// Start runs Tick every interval until the returned scheduler is shut down.
func Start(r *Runner, interval time.Duration) (gocron.Scheduler, error) {
	if r.Clock == nil {
		r.Clock = clockwork.NewRealClock()
	}
	if r.Log == nil {
		r.Log = slog.Default()
	}
	s, err := gocron.NewScheduler(gocron.WithClock(r.Clock))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			r.Tick(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("zone-tick"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("register tick: %w", err)
	}

	s.Start()
	return s, nil
}

// Tick announces newly completed zones and refreshes live status messages
// for every connected chat with a running fast.
func (r *Runner) Tick(ctx context.Context) {
	bindings, err := r.DB.ListWallets(ctx)
	if err != nil {
		r.Log.Error("list wallets failed", "error", err)
		return
	}
	now := r.Clock.Now()
	table := zones.List()

	for _, b := range bindings {
		s := r.Sessions.Load(ctx, b.WalletID)
		if s == nil {
			continue
		}

		var fresh []models.ZoneProgress
		for _, p := range progress.ComputeAll(table, s.StartTime, now) {
			if !p.IsCompleted {
				break
			}
			first, err := r.DB.MarkNotified(ctx, b.WalletID, p.Zone.Name, now)
			if err != nil {
				r.Log.Error("mark zone notified failed", "wallet", b.WalletID, "zone", p.Zone.Name, "error", err)
				continue
			}
			if first {
				fresh = append(fresh, p)
			}
		}
		if len(fresh) > 0 {
			r.Log.Info("zones reached", "chat", b.ChatID, "wallet", b.WalletID, "count", len(fresh))
			if err := r.Notifier.NotifyZones(ctx, b.ChatID, fresh); err != nil {
				r.Log.Warn("zone notification failed", "chat", b.ChatID, "error", err)
			}
		}

		if err := r.Notifier.RefreshLive(ctx, b.ChatID, b.WalletID); err != nil {
			r.Log.Warn("live status refresh failed", "chat", b.ChatID, "error", err)
		}
	}
}
