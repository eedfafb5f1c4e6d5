// SPDX-License-Identifier: AGPL-3.0-or-later
// cellwatch - on-device cellular traffic observer and IMSI-catcher detector
// Copyright (C) 2026 cellwatch contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/cellwatch/cellwatch>

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/USA-RedDragon/configulator"
	"github.com/cellwatch/cellwatch/internal/analysis"
	"github.com/cellwatch/cellwatch/internal/analysis/builtin"
	"github.com/cellwatch/cellwatch/internal/clock"
	"github.com/cellwatch/cellwatch/internal/config"
	"github.com/cellwatch/cellwatch/internal/coreapi"
	"github.com/cellwatch/cellwatch/internal/diagio"
	"github.com/cellwatch/cellwatch/internal/logging"
	"github.com/cellwatch/cellwatch/internal/metrics"
	"github.com/cellwatch/cellwatch/internal/pprof"
	"github.com/cellwatch/cellwatch/internal/qmdl"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"
)

// channelDepth bounds the transport fan-out channels: a stalled
// consumer blocks further diag reads instead of dropping records, which
// is the intended backpressure behavior.
const channelDepth = 1024

// diskSpaceCheckInterval is the cadence of the scheduler's disk-space
// sweep.
const diskSpaceCheckInterval = 30 * time.Second

func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cellwatch",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("cellwatch - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := setupTracing(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup tracing: %w", err)
	}
	defer func() {
		if err := cleanup(context.Background()); err != nil {
			slog.Error("Failed to shutdown tracer", "error", err)
		}
	}()

	startBackgroundServices(cfg)

	return runCore(ctx, cfg, cmd.Annotations["version"])
}

// runCore wires the core tasks -- transport, pipeline, raw-log writer,
// and the analysis worker -- under one errgroup, all cancelled by a
// single shutdown signal.
func runCore(ctx context.Context, cfg *config.Config, version string) error {
	m := metrics.NewMetrics()
	clk := clock.New(clock.EpochQualcommBaseline, cfg.ClockOffsetSeconds)

	store, err := qmdl.Open(cfg.QMDL, clk, m, version)
	if err != nil {
		return fmt.Errorf("failed to open qmdl store: %w", err)
	}

	dev, err := diagio.OpenDevice(cfg.DiagDevicePath)
	if err != nil {
		return fmt.Errorf("failed to open diag device: %w", err)
	}
	defer dev.Close()

	scheduler, err := setupScheduler(store)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			slog.Error("Failed to stop scheduler", "error", err)
		}
	}()

	messages := make(chan diagio.LogMessage, channelDepth)
	frames := make(chan diagio.RawFrame, channelDepth)
	transport := diagio.NewTransport(dev, messages, frames)

	factory := func() []analysis.Analyzer {
		return builtin.FromConfig(cfg.Analyzers, cfg.IncompleteSIBWindow)
	}
	service := coreapi.NewService(store, clk, m, factory, version, cfg.DebugMode)

	liveReport, err := os.Create(filepath.Join(cfg.QMDL.StorePath, "live.ndjson"))
	if err != nil {
		return fmt.Errorf("failed to create live report: %w", err)
	}
	defer liveReport.Close()
	pipeline := analysis.NewPipeline(factory(), analysis.NewNDJSONSink(liveReport), clk, m)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go handleSignals(cancel)

	if _, err := store.StartRecording(ctx); err != nil {
		// Recording starts automatically when space allows; refusal is a
		// degraded mode, not a startup failure -- the operator can clear
		// space and start over the control surface.
		slog.Warn("Recording not started", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// The transport's device read blocks without a deadline; closing the
	// device is what actually unblocks it when the group shuts down.
	go func() {
		<-ctx.Done()
		dev.Close()
	}()

	g.Go(func() error {
		defer close(messages)
		defer close(frames)
		return transport.Run(ctx)
	})
	g.Go(func() error {
		return pipeline.Run(ctx, messages, version)
	})
	g.Go(func() error {
		return store.RunWriter(ctx, frames)
	})
	g.Go(func() error {
		return service.RunAnalysisWorker(ctx)
	})

	slog.Info("cellwatch running", "device", cfg.DiagDevicePath, "store", cfg.QMDL.StorePath)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// handleSignals cancels the root context on the first termination
// signal; every task drains and exits through the errgroup.
func handleSignals(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	sig := <-sigCh
	slog.Error("Shutting down due to signal", "signal", sig)
	cancel()
}

// loadConfig loads the configuration from context
func loadConfig(ctx context.Context) (*config.Config, error) {
	c, err := configulator.FromContext[config.Config](ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from context: %w", err)
	}

	cfg, err := c.LoadWithoutValidation()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// setupScheduler creates the job scheduler and registers the periodic
// disk-space sweep.
func setupScheduler(store *qmdl.Store) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(diskSpaceCheckInterval),
		gocron.NewTask(func() {
			store.CheckDiskSpace(context.Background())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule disk-space check: %w", err)
	}
	return scheduler, nil
}

// setupTracing initializes OpenTelemetry tracing if configured.
// When tracing is not configured it returns a no-op cleanup function.
func setupTracing(cfg *config.Config) (func(context.Context) error, error) {
	if cfg.Metrics.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	return initTracer(cfg)
}

// startBackgroundServices starts metrics and pprof servers
func startBackgroundServices(cfg *config.Config) {
	go func() {
		if err := metrics.CreateMetricsServer(cfg); err != nil {
			slog.Error("Failed to start metrics server", "error", err)
		}
	}()
	go func() {
		if err := pprof.CreatePProfServer(cfg); err != nil {
			slog.Error("Failed to start pprof server", "error", err)
		}
	}()
}

func initTracer(cfg *config.Config) (func(context.Context) error, error) {
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.Metrics.OTLPEndpoint),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	resources, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "cellwatch"),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resources: %w", err)
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resources),
		),
	)
	return exporter.Shutdown, nil
}
