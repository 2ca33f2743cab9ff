package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/relay"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API and refresh loop",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	storage, err := store.NewFileStorage(cfg.HistoryDir)
	if err != nil {
		return err
	}
	history := store.OpenHistory(storage, cfg.HistoryKey, cfg.HistoryMax, logger, metrics)

	provider := providers.NewOpenMeteoProvider(httpClient, cfg.WeatherAPIURL, cfg.FetchMaxRetries, cfg.MinFetchInterval)

	var windRelay *relay.Relay
	if cfg.RelayEnabled {
		origin := "http://localhost:" + cfg.Port
		windRelay = relay.New(
			relay.NewThrottle(nil, cfg.RelayThreshold, cfg.RelayInterval),
			relay.NewClient(&http.Client{}, cfg.RelayURL, origin, cfg.RelayTimeout),
			logger,
			metrics,
		)
		logger.Info("wind speed relay enabled", "url", cfg.RelayURL)
	}

	var relayTarget dashboard.WindRelay
	if windRelay != nil {
		relayTarget = windRelay
	}
	orch, err := dashboard.New(dashboard.Config{
		Locations:       cfg.Locations,
		DefaultLocation: cfg.DefaultLocation,
		MinInterval:     cfg.MinFetchInterval,
		DisplayLimit:    cfg.HistoryDisplayLimit,
	}, provider, history, relayTarget, nil, logger, metrics)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	app := httpapi.NewApp("weather-dashboard", true)
	httpapi.RegisterRoutes(app, orch)

	go func() {
		logger.Info("http server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	sched := scheduler.New(cfg.RefreshInterval, orch, logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	if windRelay != nil {
		waitWithTimeout(windRelay.Wait, cfg.RelayTimeout)
	}

	logger.Info("shutdown complete")
	return nil
}

func waitWithTimeout(wait func(), timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
