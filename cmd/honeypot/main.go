package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/l3montree-dev/lowpot/packages/config"
	"github.com/l3montree-dev/lowpot/packages/eventlog"
	"github.com/l3montree-dev/lowpot/packages/honeypot"
	"github.com/l3montree-dev/lowpot/packages/metrics"
	"github.com/l3montree-dev/lowpot/packages/pipeline"
	"github.com/l3montree-dev/lowpot/packages/store"
	"github.com/l3montree-dev/lowpot/packages/transport"
	"github.com/l3montree-dev/lowpot/packages/types"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const feedBuffer = 1024

var logLevel = new(slog.LevelVar)

func main() {
	os.Exit(run())
}

func run() int {
	InitLogger()

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("could not load configuration", "err", err)
		return 1
	}
	logLevel.Set(cfg.ParseLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("honeypot starting, press Ctrl+C to stop")
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		slog.Warn("could not create log directory", "dir", cfg.LogDir, "err", err)
	}

	var m *metrics.Metrics
	opts := []eventlog.Option{eventlog.WithConsole(slog.Default())}
	var reg *prometheus.Registry
	if cfg.Stats.Addr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		opts = append(opts, eventlog.WithMetrics(m), eventlog.WithFeed(feedBuffer))
	}

	logger, err := eventlog.Open(cfg.LogFile, opts...)
	if err != nil {
		slog.Error("could not open event log", "err", err)
		return 1
	}
	defer logger.Close()

	if cfg.Stats.Addr != "" {
		startStats(ctx, cfg, logger, reg)
	}

	supervisor, err := honeypot.NewSupervisor(cfg, logger, m)
	if err != nil {
		slog.Error("invalid honeypot configuration", "err", err)
		return 1
	}
	if err := supervisor.Run(ctx); err != nil {
		slog.Error("honeypot stopped", "err", err)
		return 1
	}
	return 0
}

// startStats wires the event feed into the recent attempts store.
// A bind failure disables the endpoint but keeps the honeypot running.
func startStats(ctx context.Context, cfg *config.Config, logger *eventlog.Logger, reg *prometheus.Registry) {
	recent := store.NewTimeLifo[types.AttemptRecord](ctx, cfg.Stats.Retention, cfg.Stats.MaxEntries)
	httpTransport := transport.NewHTTP(transport.HTTPConfig{
		Addr:     cfg.Stats.Addr,
		Store:    recent,
		Gatherer: reg,
	})
	httpChan, err := httpTransport.Listen(ctx)
	if err != nil {
		slog.Error("could not start stats endpoint", "err", err)
		// keep draining the feed
		pipeline.Broadcast(logger.Feed())
		return
	}
	pipeline.Broadcast(logger.Feed(), httpChan)
}

func InitLogger() {
	loggingHandler := tint.NewHandler(os.Stdout, &tint.Options{
		AddSource: true,
		Level:     logLevel,
	})
	logger := slog.New(loggingHandler)
	slog.SetDefault(logger)
}
