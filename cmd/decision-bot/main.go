package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ducminhle1904/token-trade-engine/internal/config"
	"github.com/ducminhle1904/token-trade-engine/internal/engine"
	"github.com/ducminhle1904/token-trade-engine/internal/monitoring"
	"github.com/ducminhle1904/token-trade-engine/internal/repository"
	"github.com/ducminhle1904/token-trade-engine/pkg/reporting"
)

func main() {
	cfg := config.Load()

	log, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("engine exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	repo := repository.NewMemoryStore()

	venues, err := engine.BuildVenues(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build venues: %w", err)
	}

	eng, err := engine.New(cfg, repo, venues, log)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	console := reporting.NewConsoleReporter()
	console.PrintStartup(cfg.Environment, eng.Venues(), cfg.Detector.TrackedAssets,
		cfg.Detector.ScanInterval, cfg.Detector.MinProfitPct)

	health := monitoring.NewHealthChecker()
	startMonitoringServers(cfg, health, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng.Start(ctx)
	health.SetDetectorLive(true)

	session := &reporting.ScanSession{StartedAt: time.Now()}
	var sessionMu sync.Mutex

	// Consume emitted opportunities; execution stays outside the decision core.
	go func() {
		for opp := range eng.Opportunities() {
			health.MarkScan()
			sessionMu.Lock()
			session.Opportunities = append(session.Opportunities, opp)
			sessionMu.Unlock()
			log.Info("opportunity ready for execution",
				zap.String("id", opp.ID),
				zap.String("asset", opp.Asset),
				zap.Float64("net_profit", opp.NetProfit),
			)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	health.SetDetectorLive(false)
	eng.Stop()
	cancel()

	if cfg.Storage.SessionReportFile != "" {
		sessionMu.Lock()
		session.FinishedAt = time.Now()
		sessionMu.Unlock()
		if err := reporting.NewExcelReporter().WriteSession(session, cfg.Storage.SessionReportFile); err != nil {
			log.Error("failed to write session report", zap.Error(err))
		} else {
			log.Info("session report written", zap.String("path", cfg.Storage.SessionReportFile))
		}
	}

	log.Info("engine stopped cleanly")
	return nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func startMonitoringServers(cfg *config.Config, health *monitoring.HealthChecker, log *zap.Logger) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", monitoring.NewMetricsHandler())
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	healthMux := http.NewServeMux()
	healthMux.Handle("/health", health)
	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.HealthPort),
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics server listening", zap.Int("port", cfg.Monitoring.PrometheusPort))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		log.Info("health server listening", zap.Int("port", cfg.Monitoring.HealthPort))
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", zap.Error(err))
		}
	}()
}
