package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/api"
	"github.com/waterguard/waterguard/internal/auth"
	"github.com/waterguard/waterguard/internal/backend"
	"github.com/waterguard/waterguard/internal/config"
	"github.com/waterguard/waterguard/internal/ingest"
	"github.com/waterguard/waterguard/internal/logbuf"
	"github.com/waterguard/waterguard/internal/pipeline"
	"github.com/waterguard/waterguard/internal/storage"
	"github.com/waterguard/waterguard/internal/store"
	"github.com/waterguard/waterguard/internal/types"
	"github.com/waterguard/waterguard/internal/version"
)

func main() {
	configPath := flag.String("config", "/config/waterguard.yaml", "Path to configuration file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	// Capture the last 1000 log lines for /api/logs
	logBuffer := logbuf.New(1000)

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	logger := zerolog.New(multiWriter).With().
		Timestamp().
		Str("version", version.GetVersion()).
		Logger()

	logger.Info().Msg("starting waterguardd")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("config_path", *configPath).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence: Redis when reachable, in-memory otherwise. Stores keep
	// an authoritative in-memory copy either way, so a lost connection
	// degrades durability, not behavior.
	var kv storage.KV
	redisKV, err := storage.NewRedisKV(ctx, cfg.Redis)
	if err != nil {
		logger.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, falling back to in-memory persistence")
		kv = storage.NewMemoryKV()
	} else {
		kv = redisKV
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	}
	defer kv.Close()

	thresholds := store.NewThresholdStore(ctx, kv, logger)
	stations := store.NewStationStore(ctx, kv, logger, cfg.Stations.RejectStale)
	alerts := store.NewAlertStore(ctx, kv, logger)
	history := store.NewHistoryStore(kv, logger, cfg.History.Retention)
	calibrations := store.NewCalibrationStore(ctx, kv, logger)

	if cfg.Seed.Enabled {
		store.SeedAll(ctx, stations, alerts, history, calibrations)
		logger.Info().Int("stations", len(stations.List())).Msg("sample data seeded")
	}

	engine := pipeline.NewEngine(thresholds, stations, alerts, history, cfg.Alerts.Policy, logger)

	session := auth.NewService(kv, cfg.Auth.Users, logger)
	session.Load(ctx)

	// Backend sync is optional; without a base URL all data stays local
	var queue *backend.SyncQueue
	if cfg.Backend.BaseURL != "" {
		client := backend.NewClient(cfg.Backend, logger)
		queue = backend.NewSyncQueue(ctx, kv, client, logger)
		engine.SetAlertSink(func(alert types.Alert) {
			queue.EnqueueAlert(ctx, alert)
		})
		go queue.Run(ctx, cfg.Backend.FlushInterval)
		logger.Info().Str("base_url", cfg.Backend.BaseURL).Msg("backend sync enabled")
	}

	var intake *ingest.Intake
	if cfg.MQTT.Broker != "" {
		intake = ingest.NewIntake(cfg.MQTT, engine, logger)
		if err := intake.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("measurement intake unavailable, continuing without it")
			intake = nil
		} else {
			liveness := ingest.NewLivenessMonitor(stations, cfg.MQTT.OfflineAfter, cfg.MQTT.LivenessInterval, logger)
			go liveness.Run(ctx)
		}
	}

	apiServer := api.NewServer(api.Deps{
		Thresholds:   thresholds,
		Stations:     stations,
		Alerts:       alerts,
		History:      history,
		Calibrations: calibrations,
		Engine:       engine,
		Auth:         session,
		LogBuffer:    logBuffer,
	}, logger, cfg.API.Port)

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	logger.Info().Str("port", cfg.API.Port).Msg("waterguardd running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down")
	if intake != nil {
		intake.Close()
	}
	if queue != nil {
		queue.Flush(ctx)
	}
	cancel()
	logger.Info().Msg("waterguardd stopped")
}
