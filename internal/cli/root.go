// Package cli wires the cobra command tree: the telegram bot plus local
// commands for inspecting and driving a wallet's fast.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"telegram-fasting-tracker/internal/config"
	"telegram-fasting-tracker/internal/messages"
	"telegram-fasting-tracker/internal/session"
	"telegram-fasting-tracker/internal/storage"
	"telegram-fasting-tracker/internal/tui"
	"telegram-fasting-tracker/internal/utils"
	"telegram-fasting-tracker/internal/zones"
)

type app struct {
	cfg      config.Config
	log      *slog.Logger
	db       *storage.DB
	sessions *session.Store
	clock    clockwork.Clock
}

func (a *app) Close() error {
	return a.db.Close()
}

type rootOptions struct {
	dbPath string
	clock  clockwork.Clock
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(clockwork.NewRealClock())
}

func newRootCmd(clock clockwork.Clock) *cobra.Command {
	opts := &rootOptions{clock: clock}

	root := &cobra.Command{
		Use:           "fasting-tracker",
		Short:         "Fasting zone tracker: telegram bot and terminal tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "sqlite database path (default $DB_PATH)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newZonesCmd())
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newStartCmd(opts))
	root.AddCommand(newResetCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	return root
}

func loadApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	log := cfg.Logger(os.Stderr)
	slog.SetDefault(log)

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		sessions: session.New(db, log).WithArchive(db),
		clock:    opts.clock,
	}, nil
}

// withApp opens the app for the duration of fn.
func withApp(opts *rootOptions, fn func(a *app) error) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func walletFlag(cmd *cobra.Command, wallet *string) {
	cmd.Flags().StringVarP(wallet, "wallet", "w", "", "wallet address used as the storage namespace")
	_ = cmd.MarkFlagRequired("wallet")
}

func newZonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zones [name]",
		Short: "List fasting zones or show one zone's refeeding guidance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.ZonesOverview(zones.List()))
				return nil
			}
			z, ok := zones.ByName(args[0])
			if !ok {
				return fmt.Errorf("unknown zone %q", args[0])
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.ZoneCard(z))
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show zone progress for a wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				s := a.sessions.Load(cmd.Context(), wallet)
				_, _ = fmt.Fprintln(cmd.OutOrStdout(),
					messages.Status(wallet, s, zones.List(), a.clock.Now(), a.cfg.Location))
				return nil
			})
		},
	}
	walletFlag(cmd, &wallet)
	return cmd
}

func newStartCmd(opts *rootOptions) *cobra.Command {
	var wallet, at string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a fast for a wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				now := a.clock.Now()
				start, err := utils.ParseStart(at, now, a.cfg.Location)
				if err != nil {
					return err
				}
				if err := a.sessions.Begin(cmd.Context(), wallet, start, now); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.Started(start, a.cfg.Location))
				return nil
			})
		},
	}
	walletFlag(cmd, &wallet)
	cmd.Flags().StringVar(&at, "at", "now", `start time: now, "YYYY-MM-DD HH:MM" or RFC3339`)
	return cmd
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "End the wallet's current fast",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				now := a.clock.Now()
				ended, err := a.sessions.Reset(cmd.Context(), wallet, now)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.ResetDone(ended, now))
				return nil
			})
		},
	}
	walletFlag(cmd, &wallet)
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		wallet string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the wallet's finished fasts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				hs, err := a.db.ListHistory(cmd.Context(), wallet, limit)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.History(hs, a.cfg.Location))
				return nil
			})
		},
	}
	walletFlag(cmd, &wallet)
	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries")
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of every zone, refreshed each second",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(a *app) error {
				m := tui.New(cmd.Context(), a.sessions, wallet, a.clock, a.cfg.Location)
				err := tui.Run(cmd.Context(), m)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	walletFlag(cmd, &wallet)
	return cmd
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}
