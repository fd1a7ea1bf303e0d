package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	routingDI "github.com/fd1az/v2-router/business/routing/di"
	"github.com/fd1az/v2-router/business/routing/infra/httpapi"
	"github.com/fd1az/v2-router/internal/health"
	"github.com/fd1az/v2-router/internal/ratelimit"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve quotes over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	app, err := boot(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	log := app.log
	cfg := app.cfg
	log.Info(ctx, "starting v2 router",
		"version", version,
		"environment", cfg.App.Environment,
		"chain_id", cfg.Ethereum.ChainID,
	)

	if err := app.startTelemetry(ctx); err != nil {
		return err
	}

	healthServer := health.NewServer(cfg.HTTP.HealthPort, version, log)
	healthServer.RegisterCheck("backend", routingDI.GetBackend(app.mono.Services()).Check)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.HTTP.HealthPort)
	}

	handler := httpapi.NewHandler(
		routingDI.GetQuoteService(app.mono.Services()),
		ratelimit.New(cfg.HTTP.RequestsPerMinute),
		log,
	)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "http server started", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "http shutdown", "error", err)
	}
	if err := healthServer.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "health shutdown", "error", err)
	}
	return nil
}
