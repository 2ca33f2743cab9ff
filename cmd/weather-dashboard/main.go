package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/i474232898/weather-dashboard/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "weather-dashboard",
	Short: "Weather dashboard service",
	Long: `weather-dashboard polls the Open-Meteo forecast API for the selected
location, keeps a rolling observation history per location and serves the
dashboard view, history and CSV export over HTTP.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
