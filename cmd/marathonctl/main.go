package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/marathon/internal/db"
	"github.com/2beens/marathon/internal/progress"
	"github.com/2beens/marathon/internal/sweep"
	"github.com/2beens/marathon/internal/templates"
	"github.com/2beens/marathon/pkg"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

type globalFlags struct {
	env        string
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "marathonctl",
		Short:         "Operate the marathon notification engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.env, "env", "development", "environment [prod | production | dev | development]")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "./config.toml", "path for the TOML config file")

	root.AddCommand(newSweepCmd(flags))
	root.AddCommand(newMigrateCmd(flags))
	root.AddCommand(newTemplatesCmd(flags))
	root.AddCommand(newGuardCmd(flags))
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSweepCmd(flags *globalFlags) *cobra.Command {
	var asOf string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one sweep and print its report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd.Context(), flags, dryRun)
			if err != nil {
				return err
			}
			defer app.Close()

			date := sweep.Today(app.config.SweepLocation(), time.Now())
			if asOf != "" {
				if date, err = pkg.ParseDate(asOf); err != nil {
					return err
				}
			}

			report, err := app.components.Runner.RunSweep(cmd.Context(), date)
			if report != nil {
				if printErr := printJSON(cmd.OutOrStdout(), report); printErr != nil {
					return printErr
				}
			}
			if err != nil {
				return err
			}
			if report.Err() != nil {
				return fmt.Errorf("%d subjects failed", len(report.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "sweep date YYYY-MM-DD, today in the sweep timezone if empty")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "claim in memory and only log messages")
	return cmd
}

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	migrate := &cobra.Command{Use: "migrate", Short: "Database migrations"}

	migrate.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := db.Migrate(cmd.Context(), app.pool); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	})

	var dryRun bool
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Move legacy progress rows to the day-keyed table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer app.Close()

			migrator := progress.NewMigrator(app.components.Progress, app.components.Marathons, app.components.Marathons)
			report, err := migrator.Run(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	progressCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report what would be written")
	migrate.AddCommand(progressCmd)

	return migrate
}

func newTemplatesCmd(flags *globalFlags) *cobra.Command {
	tmpl := &cobra.Command{Use: "templates", Short: "Notification templates"}

	var file string
	load := &cobra.Command{
		Use:   "load",
		Short: "Register templates from a TOML file, the built-in defaults if none given",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer app.Close()

			registered, err := templates.LoadFile(cmd.Context(), app.components.Templates, file)
			for _, t := range registered {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tv%d\n", t.Type, t.Slug, t.Version)
			}
			return err
		},
	}
	load.Flags().StringVar(&file, "file", "", "TOML file with [[template]] entries")
	tmpl.AddCommand(load)

	return tmpl
}

func newGuardCmd(flags *globalFlags) *cobra.Command {
	guardCmd := &cobra.Command{Use: "guard", Short: "Idempotency guard maintenance"}

	var olderThan time.Duration
	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "Release pending claims left behind by crashed sweeps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			app, err := openApp(cmd.Context(), flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			released, err := app.components.Guard.ReconcileStale(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "released %d stale claims\n", released)
			return nil
		},
	}
	reconcile.Flags().DurationVar(&olderThan, "older-than", 30*time.Minute, "minimum claim age")
	guardCmd.AddCommand(reconcile)

	return guardCmd
}
