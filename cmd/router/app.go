package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fd1az/v2-router/business/routing"
	"github.com/fd1az/v2-router/internal/apm"
	"github.com/fd1az/v2-router/internal/config"
	"github.com/fd1az/v2-router/internal/logger"
	"github.com/fd1az/v2-router/internal/metrics"
	"github.com/fd1az/v2-router/internal/monolith"
)

// application is a configured monolith with the routing module started.
type application struct {
	cfg   *config.Config
	log   *logger.Logger
	mono  *monolith.App
	trace apm.TraceProvider
}

func boot(ctx context.Context, configPath string, logOut io.Writer) (*application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logOut, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create monolith: %w", err)
	}

	modules := []monolith.Module{
		&routing.Module{},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		mono.Close()
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		mono.Close()
		return nil, fmt.Errorf("failed to start modules: %w", err)
	}

	return &application{cfg: cfg, log: log, mono: mono}, nil
}

// startTelemetry installs the tracer and meter providers and serves
// Prometheus metrics until ctx is done.
func (a *application) startTelemetry(ctx context.Context) error {
	if !a.cfg.Telemetry.Enabled {
		return nil
	}
	tcfg := a.cfg.Telemetry

	tp, err := apm.NewTraceProvider(a.log,
		apm.WithServiceName(tcfg.ServiceName),
		apm.WithProvider(apm.ParseProvider(tcfg.Provider), tcfg.OTLPEndpoint, os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"), a.log),
	)
	if err != nil {
		return fmt.Errorf("failed to start tracing: %w", err)
	}
	a.trace = tp
	a.log.Info(ctx, "tracing initialized", "provider", tcfg.Provider, "endpoint", tcfg.OTLPEndpoint)

	if _, err := metrics.NewMetricProvider(
		metrics.WithServiceName(tcfg.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	); err != nil {
		return fmt.Errorf("failed to start metrics: %w", err)
	}

	port := strconv.Itoa(tcfg.PrometheusPort)
	go func() {
		if err := metrics.ServePrometheusMetrics(ctx, a.log, metrics.WithPort(port)); err != nil {
			a.log.Warn(ctx, "prometheus server stopped", "error", err)
		}
	}()
	a.log.Info(ctx, "prometheus metrics server started", "port", port)

	return nil
}

func (a *application) Close() {
	if a.trace != nil {
		if err := a.trace.Stop(); err != nil {
			a.log.Warn(context.Background(), "stopping tracer", "error", err)
		}
	}
	_ = a.mono.Close()
}
