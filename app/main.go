package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"droidmon/app/internal/alerts"
	"droidmon/app/internal/collector"
	"droidmon/app/internal/config"
	"droidmon/app/internal/database"
	"droidmon/app/internal/handlers"
	"droidmon/app/internal/logger"
	"droidmon/app/internal/monitor"
	"droidmon/app/internal/ratelimit"
	"droidmon/app/internal/sampler"

	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env, optional YAML and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Options{Level: cfg.LogLevel, Output: cfg.LogOutput, File: cfg.LogFile}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	store, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coll := newCollector(cfg)
	alertMgr := newAlertManager(cfg, store)
	failures := monitor.NewFailureTracker()

	bg := sampler.NewBackground(coll, store, sampler.BackgroundOptions{
		Interval: cfg.BackgroundInterval,
		MinSleep: cfg.MinSleep,
		Alerts:   alertMgr,
		Failures: failures,
	})

	var live *sampler.Live
	if cfg.EnableLive {
		live = sampler.NewLive(coll, sampler.LiveOptions{
			Interval:   cfg.LiveInterval,
			BufferSize: cfg.LiveBufferSize,
			Failures:   failures,
		})
		live.Start(ctx)
	}
	ctl := sampler.NewController(coll, store, live, bg, nil)

	// A process killed mid-session picks the same session back up
	if resumed, err := bg.Resume(ctx); err != nil {
		logger.Warn("Failed to resume monitoring", zap.Error(err))
	} else if !resumed {
		logger.Info("Monitoring idle; waiting for start action")
	}

	retention := &sampler.Retention{Store: store, Days: cfg.RetentionDays}
	retentionDone := make(chan struct{})
	go func() {
		defer close(retentionDone)
		retention.Run(ctx)
	}()

	collectLimiter := ratelimit.New(ratelimit.Config{PerMinute: 30, Burst: 10})
	defer collectLimiter.Stop()

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handlers.SetupRoutes(ctl, store, collectLimiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // status stream is long-lived
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Control API listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown incomplete", zap.Error(err))
	}

	// The persisted running flag survives so the next start resumes
	ctl.Shutdown()
	alertMgr.Wait()
	<-retentionDone
}

// newCollector builds the snapshot collector from the configured sources
func newCollector(cfg *config.Config) *collector.Collector {
	src := collector.Sources{
		ProcRoot:         cfg.ProcRoot,
		SysRoot:          cfg.SysRoot,
		DataDir:          cfg.DataDir,
		BatterySupply:    cfg.BatterySupply,
		CellularPrefixes: cfg.CellularPrefixes,
	}
	c := collector.New(src)
	permitted := cfg.LocationPermission
	c.LocationPermission = func() bool { return permitted }
	return c
}

// newAlertManager wires the CPU load alert to the log, the event log and,
// when configured, a webhook
func newAlertManager(cfg *config.Config, store *database.Store) *alerts.Manager {
	notifiers := []alerts.Notifier{
		alerts.LogNotifier{},
		alerts.EventNotifier{Events: store},
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookSecret))
	}
	return alerts.NewManager(cfg.CPUAlertThreshold, notifiers...)
}
