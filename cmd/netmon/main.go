// cmd/netmon/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mfreeman451/netmon/pkg/ack"
	"github.com/mfreeman451/netmon/pkg/alerts"
	"github.com/mfreeman451/netmon/pkg/api"
	"github.com/mfreeman451/netmon/pkg/config"
	"github.com/mfreeman451/netmon/pkg/db"
	"github.com/mfreeman451/netmon/pkg/events"
	"github.com/mfreeman451/netmon/pkg/lifecycle"
	"github.com/mfreeman451/netmon/pkg/logger"
	"github.com/mfreeman451/netmon/pkg/metrics"
	"github.com/mfreeman451/netmon/pkg/models"
	"github.com/mfreeman451/netmon/pkg/poller"
	"github.com/mfreeman451/netmon/pkg/probe"
	"github.com/mfreeman451/netmon/pkg/tools"
)

const broadcastBuffer = 128

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/netmon/netmon.json", "Path to config file")
	importPath := flag.String("import", "", "Import devices from a CSV file and exit")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	lg, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	collectors := metrics.NewCollectors()

	store, err := db.New(ctx, db.Options{
		Path:       cfg.Store.Path,
		RetryCount: cfg.Store.RetryCount,
		RetryDelay: time.Duration(cfg.Store.RetryDelay),
		Seed:       *importPath == "",
		OnRetry:    func(error) { collectors.StoreRetries.Inc() },
	}, lg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if *importPath != "" {
		defer func() { _ = store.Close() }()

		return importDevices(ctx, store, *importPath, lg)
	}

	probes, err := probe.DefaultRegistry().Build(cfg, lg)
	if err != nil {
		_ = store.Close()

		return err
	}

	alerter, err := alerts.FromConfig(&cfg.Alerts, lg)
	if err != nil {
		_ = store.Close()

		return err
	}

	queue := events.NewQueue()

	var dispatchOpts []events.DispatcherOption
	if !cfg.Events.Blocking {
		dispatchOpts = append(dispatchOpts, events.WithDrainInterval(time.Duration(cfg.Events.DrainInterval)))
	}

	dispatcher := events.NewDispatcher(queue, lg, dispatchOpts...)
	broadcaster := events.NewBroadcaster(broadcastBuffer)

	dispatcher.AddHandler(events.HandlerFunc(func(_ context.Context, e models.Event) error {
		lg.Debug().Str("kind", string(e.Kind())).Msg("Event")

		return nil
	}))
	dispatcher.AddHandler(broadcaster)

	closers := []io.Closer{store}

	if cfg.Events.NATSURL != "" {
		nats, err := events.ConnectNATS(cfg.Events.NATSURL, cfg.Events.NATSSubject, nil, lg)
		if err != nil {
			_ = store.Close()

			return err
		}

		dispatcher.AddHandler(nats)
		closers = append([]io.Closer{nats}, closers...)
	}

	latency := metrics.NewManager(cfg.Metrics)

	engine, err := poller.New(cfg, poller.Dependencies{
		Store:      store,
		Probes:     probes,
		Acks:       ack.NewTracker(),
		Events:     queue,
		Alerter:    alerter,
		Latency:    latency,
		Collectors: collectors,
	}, lg)
	if err != nil {
		_ = store.Close()

		return err
	}

	apiServer := api.NewAPIServer(engine, store, lg,
		api.WithLatency(latency),
		api.WithEventStream(broadcaster),
		api.WithMetricsHandler(collectors.Handler()),
	)

	auxTools, err := tools.DefaultRegistry().Build(&cfg.Tools, lg)
	if err != nil {
		_ = store.Close()

		return err
	}

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName: models.HealthServiceName,
		Service:     engine,
		Runners: []lifecycle.Runner{
			{Name: "events", Run: dispatcher.Run},
			{Name: "tools", Run: func(ctx context.Context) error { return tools.RunAll(ctx, auxTools, lg) }},
		},
		HTTP:           apiServer,
		HTTPAddr:       cfg.Server.ListenAddr,
		GRPCHealthAddr: cfg.Server.GRPCHealthAddr,
		Closers:        append(closers, closerFunc(queue.Close)),
		Logger:         lg,
	})
}

func importDevices(ctx context.Context, store *db.SQLiteStore, path string, lg logger.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open CSV: %w", err)
	}
	defer func() { _ = f.Close() }()

	report, err := store.ImportDevicesCSV(ctx, f)
	if err != nil {
		return err
	}

	lg.Info().
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Strs("errors", report.Errors).
		Msg("Import complete")

	return nil
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()

	return nil
}
