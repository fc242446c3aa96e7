package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"studyhub/internal/bootstrap"
	ledgerdto "studyhub/internal/modules/ledger/dto"
	timerdto "studyhub/internal/modules/timer/dto"
	"studyhub/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "studyhub",
		Short:         "Focus timer and study coin ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data", ".", "data directory (notes, config, local database)")

	root.AddCommand(newTUICmd(&dataDir))
	root.AddCommand(newTimerCmd(&dataDir))
	root.AddCommand(newCoinsCmd(&dataDir))
	root.AddCommand(newStreakCmd(&dataDir))
	root.AddCommand(newNotifyCmd(&dataDir))
	root.AddCommand(newSyncCmd(&dataDir))
	return root
}

func loadApp(ctx context.Context, dataDir string, out io.Writer) (*bootstrap.App, error) {
	cfg, err := config.New(dataDir)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, bootstrap.Options{Out: out})
}

// loadTimer opens the app and restores the persisted timer, reporting a run
// that finished while nothing was watching.
func loadTimer(ctx context.Context, cmd *cobra.Command, dataDir string) (*bootstrap.App, error) {
	app, err := loadApp(ctx, dataDir, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	restored, err := app.TimerCLI.Restore(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	if restored.Completion != nil {
		printCompletion(cmd.OutOrStdout(), *restored.Completion)
	}
	return app, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newTUICmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the studyhub terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()
			app, err := loadApp(ctx, *dataDir, io.Discard)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(ctx, app)
		},
	}
}

func newTimerCmd(dataDir *string) *cobra.Command {
	timer := &cobra.Command{Use: "timer", Short: "Focus timer commands"}

	transition := func(use, short string, apply func(context.Context, *bootstrap.App) (timerdto.StatusOutput, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx := context.Background()
				app, err := loadTimer(ctx, cmd, *dataDir)
				if err != nil {
					return err
				}
				defer app.Close()
				status, err := apply(ctx, app)
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			},
		}
	}

	timer.AddCommand(
		transition("start", "Start or continue the countdown", func(ctx context.Context, app *bootstrap.App) (timerdto.StatusOutput, error) {
			return app.TimerCLI.Start(ctx)
		}),
		transition("pause", "Pause the running countdown", func(ctx context.Context, app *bootstrap.App) (timerdto.StatusOutput, error) {
			return app.TimerCLI.Pause(ctx)
		}),
		transition("resume", "Resume a paused countdown", func(ctx context.Context, app *bootstrap.App) (timerdto.StatusOutput, error) {
			return app.TimerCLI.Resume(ctx)
		}),
		transition("stop", "Abandon the current run", func(ctx context.Context, app *bootstrap.App) (timerdto.StatusOutput, error) {
			return app.TimerCLI.Stop(ctx)
		}),
		transition("status", "Show the timer", func(ctx context.Context, app *bootstrap.App) (timerdto.StatusOutput, error) {
			return app.TimerCLI.Status(ctx), nil
		}),
	)

	timer.AddCommand(&cobra.Command{
		Use:   "duration <minutes>",
		Short: "Set the session length (idle or completed timer only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("minutes must be a number: %w", err)
			}
			ctx := context.Background()
			app, err := loadTimer(ctx, cmd, *dataDir)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.TimerCLI.SetDuration(ctx, minutes)
			if err != nil {
				return err
			}
			if !out.Applied {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "duration unchanged while %s\n", out.Status.Status)
			}
			printStatus(cmd.OutOrStdout(), out.Status)
			return nil
		},
	})

	timer.AddCommand(&cobra.Command{
		Use:   "category [name]",
		Short: "Set or clear the category for the next session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := loadTimer(ctx, cmd, *dataDir)
			if err != nil {
				return err
			}
			defer app.Close()
			status, err := app.TimerCLI.SetCategory(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	})

	timer.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Count down in the foreground until the session completes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()
			app, err := loadTimer(ctx, cmd, *dataDir)
			if err != nil {
				return err
			}
			defer app.Close()
			if !app.TimerCLI.Status(ctx).Running() {
				if _, err := app.TimerCLI.Start(ctx); err != nil {
					return err
				}
			}
			w := cmd.OutOrStdout()
			err = app.TimerCLI.Run(ctx, func(tick timerdto.TickOutput) {
				if tick.Completion != nil {
					_, _ = fmt.Fprintln(w)
					printCompletion(w, *tick.Completion)
					return
				}
				_, _ = fmt.Fprintf(w, "\r%s remaining ", formatClock(tick.Status.RemainingSeconds))
			})
			if err != nil && ctx.Err() != nil {
				_, _ = fmt.Fprintln(w, "\ninterrupted; the timer keeps running")
				return nil
			}
			return err
		},
	})
	return timer
}

func newCoinsCmd(dataDir *string) *cobra.Command {
	coins := &cobra.Command{Use: "coins", Short: "Coin ledger commands"}

	coins.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Show the coin balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.LedgerCLI.Balance(ctx)
			if err != nil {
				return err
			}
			suffix := ""
			if out.Cached {
				suffix = " (cached)"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d coins%s\n", out.UserID, out.Balance, suffix)
			return nil
		},
	})

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List recent coin transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			items, err := app.LedgerCLI.History(ctx, limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no transactions")
				return nil
			}
			for _, item := range items {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%+d\t%s\t%s\n", item.CreatedAt.Local().Format("2006-01-02 15:04"), item.Amount, item.Source, item.Description)
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 50, "transactions to show")
	coins.AddCommand(history)

	coins.AddCommand(&cobra.Command{
		Use:   "task <title>",
		Short: "Record a completed task (+5 coins)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.LedgerCLI.CompleteTask(ctx, strings.Join(args, " "))
			printAward(cmd.OutOrStdout(), out)
			return err
		},
	})

	coins.AddCommand(&cobra.Command{
		Use:   "flashcard <front>",
		Short: "Record a created flashcard (+2 coins)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.LedgerCLI.CreateFlashcard(ctx, strings.Join(args, " "))
			printAward(cmd.OutOrStdout(), out)
			return err
		},
	})

	coins.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild the balance from the transaction log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.LedgerCLI.Reconcile(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "balance %d -> %d (drift %+d)\n", out.Before, out.After, out.Drift)
			return nil
		},
	})
	return coins
}

func newStreakCmd(dataDir *string) *cobra.Command {
	streak := &cobra.Command{Use: "streak", Short: "Daily activity streak"}

	streak.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current streak",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, next, err := app.StreakCLI.Show(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d-day streak as of %s\n", out.Days, out.Today)
			if next > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "keep going tomorrow for a %d coin bonus\n", next)
			}
			return nil
		},
	})

	streak.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Record today's activity and pay any streak bonus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.StreakCLI.Check(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "streak %d (was %d)", out.Streak, out.Previous)
			if out.Awarded {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), " bonus +%d", out.Bonus)
			} else if out.AlreadyPaid {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), " bonus already paid today")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	})
	return streak
}

func newNotifyCmd(dataDir *string) *cobra.Command {
	notify := &cobra.Command{Use: "notify", Short: "Notification preferences"}

	notify.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show notification preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.NotifyCLI.Show(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enabled=%t contact=%q\n", out.Enabled, out.Contact)
			return nil
		},
	})

	toggle := func(use string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: use + " email notifications",
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx := context.Background()
				app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				defer app.Close()
				out, err := app.NotifyCLI.SetEnabled(ctx, enabled)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: enabled=%t\n", out.Outcome, out.Current.Enabled)
				return nil
			},
		}
	}
	notify.AddCommand(toggle("enable", true), toggle("disable", false))

	notify.AddCommand(&cobra.Command{
		Use:   "contact <email>",
		Short: "Set the notification address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.NotifyCLI.SetContact(ctx, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: contact=%q\n", out.Outcome, out.Current.Contact)
			return nil
		},
	})

	notify.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out := app.NotifyCLI.Test(ctx)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", out.Outcome, out.Reason)
			return nil
		},
	})
	return notify
}

func newSyncCmd(dataDir *string) *cobra.Command {
	sync := &cobra.Command{Use: "sync", Short: "Cross-device balance sync"}

	sync.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Follow balance changes pushed by other devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out := cmd.OutOrStdout()
			applied, unsubscribe := app.SyncCLI.Applied()
			printed := make(chan struct{})
			go func() {
				defer close(printed)
				for change := range applied {
					_, _ = fmt.Fprintf(out, "%s  %s: %d coins\n", change.UpdatedAt.Local().Format("15:04:05"), change.UserID, change.Balance)
				}
			}()
			_, _ = fmt.Fprintf(out, "watching balance as %s (ctrl+c to stop)\n", app.Origin)
			err = app.SyncCLI.Watch(ctx)
			unsubscribe()
			<-printed
			return err
		},
	})

	sync.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show subscription status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, err := loadApp(ctx, *dataDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			s := app.SyncCLI.Status()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user=%s subscribed=%t applied=%d skipped=%d\n", s.UserID, s.Subscribed, s.Applied, s.Skipped)
			return nil
		},
	})
	return sync
}

func printStatus(w io.Writer, s timerdto.StatusOutput) {
	_, _ = fmt.Fprintf(w, "%s %s of %s", s.Status, formatClock(s.RemainingSeconds), formatClock(s.DurationSeconds))
	if s.Category != "" {
		_, _ = fmt.Fprintf(w, " [%s]", s.Category)
	}
	if s.MemoryOnly {
		_, _ = fmt.Fprint(w, " (not saved)")
	}
	_, _ = fmt.Fprintln(w)
}

func printCompletion(w io.Writer, c timerdto.CompletionOutput) {
	_, _ = fmt.Fprintf(w, "session complete: %d min, %d coins", c.LoggedMinutes, c.EarnedCoins)
	switch {
	case c.AwardCommitted:
		_, _ = fmt.Fprintf(w, ", balance %d", c.BalanceAfter)
	case c.AwardError != "":
		_, _ = fmt.Fprintf(w, " not awarded (%s)", c.AwardError)
	}
	if c.StreakDays > 0 {
		_, _ = fmt.Fprintf(w, ", streak %d", c.StreakDays)
	}
	_, _ = fmt.Fprintln(w)
	if c.SessionPath != "" {
		_, _ = fmt.Fprintf(w, "note=%s\n", c.SessionPath)
	}
}

func printAward(w io.Writer, out ledgerdto.AwardOutput) {
	if out.Milestone > 0 && out.MilestoneNotified {
		_, _ = fmt.Fprintf(w, "milestone reached: %d coins\n", out.Milestone)
	}
	if out.Outcome == ledgerdto.OutcomeFailed {
		_, _ = fmt.Fprintf(w, "award failed at %s\n", out.Stage)
	}
}

func formatClock(seconds int) string {
	d := time.Duration(seconds) * time.Second
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
