package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"finsight/internal/app"
	"finsight/internal/common/config"
	"finsight/internal/common/logger"
	"finsight/internal/common/observability"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (defaults to configs/config.yaml)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting finsight...",
		zap.String("environment", cfg.App.Environment),
		zap.String("chartStore", cfg.Charts.Store),
	)

	obsOpts := []observability.Option{observability.WithGlobalProviders()}
	if cfg.Observability.JaegerEndpoint != "" {
		obsOpts = append(obsOpts, observability.WithJaegerEndpoint(cfg.Observability.JaegerEndpoint))
	}
	obs := observability.New(cfg.Observability.ServiceName, obsOpts...)
	defer obs.Shutdown()

	service, err := app.New(cfg, log, obs)
	if err != nil {
		zapLog.Fatal("service init failed", zap.Error(err))
	}
	defer service.Close()

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      service.Router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("finsight stopped gracefully")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
