package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/config"
	"gymbeta/internal/db"
	"gymbeta/internal/logger"
	"gymbeta/internal/membership"
	"gymbeta/internal/seed"
	"gymbeta/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

type env struct {
	cfg *config.Config
	db  *sqlx.DB
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "gymctl",
		Short:         "Operator tasks for the gymbeta backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.InitWithLevel(cfg.LogLevel)
			e.cfg = cfg
			return nil
		},
	}

	root.AddCommand(newMigrateCmd(e), newSweepCmd(e), newSeedCmd(e))
	return root
}

func (e *env) connect() error {
	if e.db != nil {
		return nil
	}
	database, err := db.Connect(e.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	e.db = database
	return nil
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
	}
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.connect(); err != nil {
				return err
			}
			defer e.close()

			if err := db.RunMigrations(e.db, e.cfg.MigrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSweepCmd(e *env) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire lapsed entries and promote queued ones for every member",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = parsed.UTC()
			}

			if err := e.connect(); err != nil {
				return err
			}
			defer e.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := membership.NewService(store.New(e.db, catalog.NewRepository(e.db)))
			stats, err := svc.SweepAll(ctx, now)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "members=%d expired=%d promoted=%d failed=%d\n",
				stats.Members, stats.Expired, stats.Promoted, stats.Failed)
			if stats.Failed > 0 {
				return fmt.Errorf("%d ledger sweeps failed", stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "reference time (RFC3339), defaults to now")
	return cmd
}

func newSeedCmd(e *env) *cobra.Command {
	var admin seed.Admin

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert starter packages, exercises and an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if admin.Email != "" && len(admin.Password) < 6 {
				return fmt.Errorf("--admin-password must be at least 6 characters")
			}

			if err := e.connect(); err != nil {
				return err
			}
			defer e.close()

			report, err := seed.Run(context.Background(), e.db, admin)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "packages=%d exercises=%d admin_created=%t\n",
				report.Packages, report.Exercises, report.Admin)
			return nil
		},
	}

	cmd.Flags().StringVar(&admin.Name, "admin-name", "Administrator", "admin display name")
	cmd.Flags().StringVar(&admin.Email, "admin-email", "admin@gymbeta.vn", "admin email; empty skips the admin")
	cmd.Flags().StringVar(&admin.Password, "admin-password", "", "admin password")
	return cmd
}
