package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/bridge"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/observability"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.LoadBridge()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	port, err := bridge.OpenSerial(cfg.SerialPort, cfg.BaudRate)
	if err != nil {
		logger.Error("unable to open serial port", "port", cfg.SerialPort, "error", err)
		os.Exit(1)
	}
	defer func() {
		port.Close()
		logger.Info("serial port closed")
	}()
	logger.Info("opened serial port", "port", cfg.SerialPort, "baud", cfg.BaudRate)

	app := httpapi.NewApp("wind-bridge", false)
	bridge.New(port, logger, metrics).Register(app)

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := app.Listen(addr); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("received signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}
