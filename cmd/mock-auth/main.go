package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetcare/internal/auth"
	"budgetcare/internal/cli"
	"budgetcare/internal/log"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentAuth)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	authCfg := auth.DefaultConfig()
	authCfg.DemoEmail = cfg.AuthDemoEmail
	authCfg.DemoPassword = cfg.AuthDemoPassword
	authCfg.Delay = cfg.AuthDelay

	srv := auth.NewServer(":"+cfg.AuthPort, authCfg, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting mock login server",
			log.FieldOperation, log.OpStartup, "port", cfg.AuthPort, "delay", cfg.AuthDelay)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return cli.GracefulShutdown(gctx, logger, srv, 5*time.Second)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Login server error", log.FieldError, err)
		os.Exit(1)
	}
}
