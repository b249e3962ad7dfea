// Command pettrack is the PetTrack operations CLI.
//
// Usage:
//
//	pettrack migrate
//	pettrack purge --notifications-days 30 --history-days 90
//	pettrack simulate steps.json --min-distance 500
//	pettrack notify --user user-1 --title "Hello" --body "Test alert"
//	pettrack card validate 4532015112830366 --expiry 08/27 --cvv 123
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mihuella/pettrack/internal/cache"
	"github.com/mihuella/pettrack/internal/chip"
	"github.com/mihuella/pettrack/internal/config"
	"github.com/mihuella/pettrack/internal/db"
	"github.com/mihuella/pettrack/internal/maintenance"
	"github.com/mihuella/pettrack/internal/notifications"
	"github.com/mihuella/pettrack/internal/tracking"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "pettrack",
		Short: "PetTrack operations CLI",
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(purgeCmd())
	root.AddCommand(simulateCmd())
	root.AddCommand(notifyCmd())
	root.AddCommand(cardCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			start := time.Now()
			if err := db.EnsureSchema(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("Schema applied", "duration", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// purge command
// --------------------------------------------------------------------------

func purgeCmd() *cobra.Command {
	var notifDays, historyDays int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete old read notifications and location history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				mc := maintenance.Config{
					NotificationRetention: days(notifDays, cfg.NotificationRetentionDays),
					HistoryRetention:      days(historyDays, cfg.HistoryRetentionDays),
				}
				res, err := maintenance.Purge(ctx, pool, mc, time.Now().UTC())
				if err != nil {
					return err
				}
				logger.Info("Purge finished", "notifications", res.Notifications, "history", res.History)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&notifDays, "notifications-days", 0, "Retention for read notifications (default NOTIFICATION_RETENTION_DAYS)")
	cmd.Flags().IntVar(&historyDays, "history-days", 0, "Retention for location history (default HISTORY_RETENTION_DAYS)")
	return cmd
}

func days(flag, fallback int) time.Duration {
	if flag <= 0 {
		flag = fallback
	}
	return time.Duration(flag) * 24 * time.Hour
}

// --------------------------------------------------------------------------
// simulate command
// --------------------------------------------------------------------------

func simulateCmd() *cobra.Command {
	var (
		minDistance float64
		announce    bool
	)
	cmd := &cobra.Command{
		Use:   "simulate <steps.json>",
		Short: "Replay snapshot steps through the movement detector",
		Long: "Reads a JSON array of steps, each an array of {id, name, location} pets, " +
			"and prints every event the detector emits. No database is needed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := simulate(cmd.Context(), f, cmd.OutOrStdout(), tracking.TrackerConfig{
				MinDistanceMeters: minDistance,
				AnnounceInitial:   announce,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d event(s)\n", n)
			return nil
		},
	}
	cmd.Flags().Float64Var(&minDistance, "min-distance", tracking.DefaultMinDistanceMeters, "Movement threshold in meters")
	cmd.Flags().BoolVar(&announce, "announce-initial", false, "Emit registered events for the first step")
	return cmd
}

// --------------------------------------------------------------------------
// notify command
// --------------------------------------------------------------------------

func notifyCmd() *cobra.Command {
	var userID, title, body string
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send one notification through both sinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				store := notifications.NewStore(pool.Pool)
				contacts := notifications.NewCachedContacts(store, cache.New[notifications.Contact](false), cfg.PushTokenTTL)
				alerter := notifications.AlerterFromConfig(cfg, contacts, store, logger)
				d := notifications.NewDispatcher(alerter, store, logger)

				res := d.Dispatch(ctx, userID, title, body)
				logger.Info("Notification dispatched", "user_id", userID, "local", res.Local, "durable", res.Durable)
				return res.Err()
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Recipient user id")
	cmd.Flags().StringVar(&title, "title", "PetTrack", "Notification title")
	cmd.Flags().StringVar(&body, "body", "", "Notification body")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

// --------------------------------------------------------------------------
// card command
// --------------------------------------------------------------------------

func cardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Payment card utilities",
	}
	cmd.AddCommand(cardValidateCmd())
	return cmd
}

func cardValidateCmd() *cobra.Command {
	var expiry, cvv, holder string
	cmd := &cobra.Command{
		Use:   "validate <number>",
		Short: "Check a card number, expiry and CVV the way checkout does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := chip.CardForm{Holder: holder, Number: args[0], Expiry: expiry, CVV: cvv}
			v := chip.NewValidator(func() time.Time { return time.Now().UTC() })

			out := cmd.OutOrStdout()
			if err := v.Struct(form); err != nil {
				for field, msg := range chip.FieldErrors(err) {
					fmt.Fprintf(out, "%s %s\n", field, msg)
				}
				return fmt.Errorf("card rejected")
			}
			fmt.Fprintf(out, "ok: %s ending %s\n", chip.Brand(form.Number), chip.Last4(form.Number))
			return nil
		},
	}
	cmd.Flags().StringVar(&expiry, "expiry", "", "Expiry as MM/YY")
	cmd.Flags().StringVar(&cvv, "cvv", "", "Card security code")
	cmd.Flags().StringVar(&holder, "holder", "Card Holder", "Name on card")
	_ = cmd.MarkFlagRequired("expiry")
	_ = cmd.MarkFlagRequired("cvv")
	return cmd
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func runWithDB(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
