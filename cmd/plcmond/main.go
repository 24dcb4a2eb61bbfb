package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dnenndn/monitoringAPP/internal/alerts"
	"github.com/dnenndn/monitoringAPP/internal/config"
	"github.com/dnenndn/monitoringAPP/internal/event"
	"github.com/dnenndn/monitoringAPP/internal/feed"
	"github.com/dnenndn/monitoringAPP/internal/history"
	"github.com/dnenndn/monitoringAPP/internal/reconcile"
	"github.com/dnenndn/monitoringAPP/internal/server"
	"github.com/dnenndn/monitoringAPP/internal/state"
	"github.com/dnenndn/monitoringAPP/internal/store"
	"github.com/dnenndn/monitoringAPP/internal/version"
	"github.com/dnenndn/monitoringAPP/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("plcmond %s (%s, %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("plcmond starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shared services.
	bus := event.NewBus(logger.Named("event"))
	stateStore := state.New(logger.Named("state"))

	// Local history retention (optional).
	var histSource server.HistorySource
	var recorder *history.Recorder
	if viperCfg.GetBool("history.enabled") {
		dbPath := viperCfg.GetString("database.dsn")
		db, err := store.New(dbPath)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer db.Close()

		histStore, err := history.NewStore(ctx, db)
		if err != nil {
			logger.Fatal("failed to initialize history store", zap.Error(err))
		}
		histSource = histStore
		recorder = history.NewRecorder(histStore, bus,
			viperCfg.GetDuration("history.retention_period"), logger)
		logger.Info("history store initialized",
			zap.String("component", "history"),
			zap.String("path", dbPath),
		)
	}

	// Upstream REST client and change feed.
	client := feed.NewClient(feed.ClientConfig{
		BaseURL:         viperCfg.GetString("feed.base_url"),
		APIKey:          viperCfg.GetString("feed.api_key"),
		SnapshotTimeout: viperCfg.GetDuration("feed.snapshot_timeout"),
		HistoryTimeout:  viperCfg.GetDuration("feed.history_timeout"),
		AckTimeout:      viperCfg.GetDuration("feed.ack_timeout"),
	}, logger)
	changeFeed := feed.NewFeed(
		viperCfg.GetString("feed.ws_url"),
		viperCfg.GetString("feed.api_key"),
		logger,
	)

	// Gateway connectivity probe (optional).
	var probe server.GatewayProbe
	var prober *feed.Prober
	if target := viperCfg.GetString("prober.target"); target != "" {
		prober = feed.NewProber(feed.ProberConfig{
			Target:   target,
			Interval: viperCfg.GetDuration("prober.interval"),
			Timeout:  viperCfg.GetDuration("prober.timeout"),
			Count:    viperCfg.GetInt("prober.count"),
		}, logger, nil)
		probe = prober
	}

	// Reconciler: single writer of the state store.
	rec := reconcile.New(stateStore, client, bus,
		viperCfg.GetDuration("feed.resync_interval"), logger)

	// Alert lifecycle manager.
	alertManager := alerts.New(client, client, stateStore, bus,
		viperCfg.GetDuration("alerts.refresh_interval"), logger)

	// WebSocket fan-out.
	wsHandler := ws.NewHandler(bus, logger.Named("ws"))

	// Background loops.
	events := changeFeed.Subscribe(ctx)
	go func() {
		if err := rec.Run(ctx, events); err != nil && ctx.Err() == nil {
			logger.Error("reconciler stopped", zap.Error(err))
		}
	}()
	go alertManager.Run(ctx)
	if recorder != nil {
		go recorder.Run(ctx)
	}
	if prober != nil {
		go prober.Run(ctx)
	}

	// HTTP server.
	var srvCfg server.Config
	if err := viperCfg.UnmarshalKey("server", &srvCfg); err != nil {
		logger.Fatal("invalid server configuration", zap.Error(err))
	}
	addr := srvCfg.Addr()
	api := server.NewAPIHandler(stateStore, alertManager, histSource, client,
		changeFeed, probe, logger.Named("api"))
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		select {
		case <-rec.Synced():
			return nil
		default:
			return fmt.Errorf("initial sync in progress")
		}
	})
	srv := server.New(addr, api, logger.Named("server"), readyCheck, wsHandler)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("plcmond ready", zap.String("addr", addr))

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("plcmond stopped")
}
