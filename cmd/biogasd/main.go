package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biogasd/internal/alerts"
	"biogasd/internal/api"
	"biogasd/internal/config"
	"biogasd/internal/engine"
	"biogasd/internal/history"
	"biogasd/internal/ingest"
	"biogasd/internal/live"
	"biogasd/internal/logging"
	"biogasd/internal/notify"
	"biogasd/internal/status"
	"biogasd/internal/storage"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "path to config file (optional; environment supplies connection settings otherwise)")
	flag.Parse()

	var mgr *config.Manager
	if *configPath != "" {
		m, err := config.NewManager(config.ResolvePath(*configPath))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		mgr = m
	} else {
		cfg, err := config.FromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		mgr = config.NewStaticManager(cfg)
	}
	cfg := mgr.Get()
	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting biogasd", "version", version, "topic", cfg.MQTT.Topic)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Error("storage init failed", "err", err)
		os.Exit(1)
	}
	if store != nil {
		if err := store.Init(ctx); err != nil {
			logger.Error("storage schema init failed", "err", err)
			os.Exit(1)
		}
		defer store.Close()
		logger.Info("storage enabled", "driver", cfg.Storage.Driver)
	}

	var poster live.ReadingSink
	if cfg.Backend.Enabled && cfg.Backend.IngestURL != "" {
		poster = ingest.NewPoster(cfg.Backend.IngestURL, cfg.Backend.Timeout, logger)
		logger.Info("backend forwarding enabled", "url", cfg.Backend.IngestURL)
	}

	var notifier live.AlertNotifier
	if cfg.Slack.Enabled {
		slack, err := notify.NewSlack(cfg.Slack.WebhookURL, cfg.Slack.Channel)
		if err != nil {
			logger.Error("slack notifier init failed", "err", err)
			os.Exit(1)
		}
		notifier = slack
		if err := slack.SendNotification(ctx, "Biogas monitoring service started."); err != nil {
			logger.Warn("startup notification failed", "err", err)
		}
	}

	alertStore := alerts.NewStore(cfg.Alerts.StoreLimit)
	statusStore := status.NewStore(cfg.Devices.StoreLimit)
	session := live.NewSession(live.Options{
		Logger:         logger,
		Bands:          engine.BandsFromConfig(cfg.Thresholds),
		History:        history.NewBuffer(cfg.History.Limit),
		Alerts:         alertStore,
		Status:         statusStore,
		Storage:        store,
		Poster:         poster,
		Notifier:       notifier,
		NotifyCooldown: cfg.Alerts.NotifyCooldown,
		EventBuffer:    cfg.Ingest.ChannelBuffer,
	})
	go session.Run(ctx)

	client, err := ingest.StartMQTT(mgr, session, logger)
	if err != nil {
		logger.Error("mqtt startup failed", "err", err)
		os.Exit(1)
	}
	ingest.StartKafka(ctx, mgr, session, logger)
	ingest.StartREST(ctx, mgr, session, logger)
	api.Start(ctx, mgr, session, alertStore, statusStore, logger, version)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutting down", "signal", sig.String())

	ingest.StopMQTT(client, mgr, session, logger)
	cancel()
	time.Sleep(500 * time.Millisecond)
	logger.Info("shutdown complete")
}
