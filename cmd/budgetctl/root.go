package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"budgetcare/internal/backend"
	"budgetcare/internal/config"
	"budgetcare/internal/core"
	"budgetcare/internal/log"
	"budgetcare/internal/plans"
	"budgetcare/internal/services"
)

// app holds the flags and the services opened for one invocation.
type app struct {
	backendType string
	dbPath      string
	plansFile   string
	noSeed      bool

	out    io.Writer
	logger *log.Logger

	plans        *plans.Store
	reservations *services.ReservationService
}

// run executes one command line and returns the process exit code.
func run(args []string, out, errOut io.Writer) int {
	a := &app{
		out:    out,
		logger: log.New(log.Config{Level: slog.LevelWarn, Component: log.ComponentApp, Output: errOut}),
	}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(context.Background())
	if a.reservations != nil {
		if cerr := a.reservations.Close(); cerr != nil {
			a.logger.Warn("Failed to close backend", log.FieldError, cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(errOut, errStyle.Render("Erreur:"), errorMessage(err))
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Budget plans and fund reservations",
		Long:          "Inspect budget plans, reserve funds and export reservations from the configured store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.backendType, "backend", cfg.DataBackend, "Reservation store (memory or sqlite)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", cfg.SQLiteDBPath, "SQLite database path")
	root.PersistentFlags().StringVar(&a.plansFile, "plans", cfg.PlansFile, "TOML plans file (built-in plans when empty)")
	root.PersistentFlags().BoolVar(&a.noSeed, "no-seed", !cfg.SeedReservations, "Do not load demo reservations into an empty store")

	root.AddCommand(
		a.plansCmd(),
		a.summaryCmd(),
		a.historyCmd(),
		a.listCmd(),
		a.exportCmd(),
		a.reserveCmd(),
		a.convertCmd(),
		a.cancelCmd(),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	store, err := plans.NewFromFile(a.plansFile)
	if err != nil {
		return fmt.Errorf("load plans: %w", err)
	}

	res, err := backend.NewFactory(a.logger).CreateBackend(ctx, backend.Config{
		Type:         backend.BackendType(a.backendType),
		SQLiteDBPath: a.dbPath,
		Seed:         !a.noSeed,
	})
	if err != nil {
		return err
	}

	a.plans = store
	a.reservations = services.NewReservationService(res.Repository, store, services.WithLogger(a.logger))
	return nil
}

// errorMessage prefers the French domain sentence and falls back to the raw
// error for flag and I/O problems.
func errorMessage(err error) string {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrPlanNotFound,
		core.ErrCategoryNotFound,
		core.ErrReservationNotFound,
		core.ErrInsufficientFunds,
		core.ErrInvalidTransition,
		core.ErrValidationFailed,
	} {
		if errors.Is(err, target) {
			return core.UserMessage(err)
		}
	}
	return err.Error()
}
