package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forecast-studio/internal/api"
	"forecast-studio/internal/config"
	"forecast-studio/internal/logging"
	"forecast-studio/internal/metrics"
	"forecast-studio/internal/service"
	"forecast-studio/internal/state"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	m := metrics.New()

	// Initialize Services
	pipeline := service.NewPipeline(service.PipelineConfig{
		Prepare: service.PrepareOptions{
			CategoryColumn: cfg.Data.CategoryColumn,
			DateColumn:     cfg.Data.DateColumn,
			Metrics:        cfg.Forecast.Metrics,
		},
		MaxPeriods: cfg.Forecast.MaxPeriods,
		Engine:     cfg.Forecast.EngineConfig(),
	}, logger, m)
	sessions := state.NewSessionStore(cfg.Session.TTL)

	// Initialize Handler
	handler := api.NewHandler(cfg, sessions, pipeline, logger, m)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("addr", srv.Addr).Info("forecast studio listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
