package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

type AppConfig struct {
	Port            string
	WeatherAPIURL   string
	HTTPTimeout     time.Duration
	FetchMaxRetries int

	// RefreshInterval is the scheduler tick; MinFetchInterval is the
	// rate-limit guard applied to unforced refreshes and sets the real
	// upstream cadence.
	RefreshInterval  time.Duration
	MinFetchInterval time.Duration

	HistoryDir          string
	HistoryKey          string
	HistoryMax          int
	HistoryDisplayLimit int

	RelayEnabled   bool
	RelayURL       string
	RelayThreshold float64
	RelayInterval  time.Duration
	RelayTimeout   time.Duration

	Locations       []weather.Location
	DefaultLocation string

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// BridgeConfig configures the serial wind bridge.
type BridgeConfig struct {
	SerialPort string
	BaudRate   int
	Host       string
	Port       string
	LogLevel   string
	LogFormat  string
}

// DefaultLocations is the built-in catalog used when LOCATIONS_FILE is unset.
var DefaultLocations = []weather.Location{
	{ID: "vienna", Label: "Vienna", Headline: "Vienna, Austria", Subtitle: "Innere Stadt", Latitude: 48.2082, Longitude: 16.3738, Timezone: "Europe/Vienna"},
	{ID: "berlin", Label: "Berlin", Headline: "Berlin, Germany", Subtitle: "Mitte", Latitude: 52.52, Longitude: 13.405, Timezone: "Europe/Berlin"},
	{ID: "london", Label: "London", Headline: "London, United Kingdom", Subtitle: "Westminster", Latitude: 51.5072, Longitude: -0.1276, Timezone: "Europe/London"},
	{ID: "new-york", Label: "New York", Headline: "New York, USA", Subtitle: "Manhattan", Latitude: 40.7128, Longitude: -74.006, Timezone: "America/New_York"},
}

// Load reads configuration from environment with sensible defaults.
// Callers load .env files beforehand.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:                getenvDefault("PORT", "8080"),
		WeatherAPIURL:       getenvDefault("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast"),
		HistoryDir:          getenvDefault("HISTORY_DIR", "./data"),
		HistoryKey:          getenvDefault("HISTORY_KEY", "weather-history"),
		RelayURL:            getenvDefault("RELAY_URL", "http://127.0.0.1:5000/wind-speed"),
		DefaultLocation:     os.Getenv("DEFAULT_LOCATION"),
		LogLevel:            getenvDefault("LOG_LEVEL", "info"),
		LogFormat:           getenvDefault("LOG_FORMAT", "json"),
		FetchMaxRetries:     getenvInt("FETCH_MAX_RETRIES", 0),
		HistoryMax:          getenvInt("HISTORY_MAX", 600),
		HistoryDisplayLimit: getenvInt("HISTORY_DISPLAY_LIMIT", 24),
	}

	var err error
	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"REFRESH_INTERVAL", "1s", &cfg.RefreshInterval},
		{"MIN_FETCH_INTERVAL", "15s", &cfg.MinFetchInterval},
		{"RELAY_INTERVAL", "30s", &cfg.RelayInterval},
		{"RELAY_TIMEOUT", "2s", &cfg.RelayTimeout},
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = getenvDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.RelayEnabled, err = getenvBool("RELAY_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.RelayThreshold, err = getenvFloat("RELAY_THRESHOLD", 0.5); err != nil {
		return nil, err
	}

	cfg.Locations, err = loadLocations(os.Getenv("LOCATIONS_FILE"))
	if err != nil {
		return nil, err
	}
	if cfg.DefaultLocation != "" && !hasLocation(cfg.Locations, cfg.DefaultLocation) {
		return nil, fmt.Errorf("DEFAULT_LOCATION %q is not a configured location", cfg.DefaultLocation)
	}

	return cfg, nil
}

// LoadBridge reads the wind bridge configuration.
func LoadBridge() (*BridgeConfig, error) {
	cfg := &BridgeConfig{
		SerialPort: getenvDefault("SERIAL_PORT", "/dev/ttyUSB0"),
		Host:       getenvDefault("BRIDGE_HOST", "0.0.0.0"),
		Port:       getenvDefault("BRIDGE_PORT", "5000"),
		LogLevel:   getenvDefault("LOG_LEVEL", "info"),
		LogFormat:  getenvDefault("LOG_FORMAT", "text"),
	}
	baud, err := strconv.Atoi(getenvDefault("BAUD_RATE", "9600"))
	if err != nil || baud <= 0 {
		return nil, fmt.Errorf("invalid BAUD_RATE: %q", os.Getenv("BAUD_RATE"))
	}
	cfg.BaudRate = baud
	return cfg, nil
}

func loadLocations(path string) ([]weather.Location, error) {
	if path == "" {
		return DefaultLocations, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read LOCATIONS_FILE: %w", err)
	}
	var locs []weather.Location
	if err := json.Unmarshal(raw, &locs); err != nil {
		return nil, fmt.Errorf("parse LOCATIONS_FILE: %w", err)
	}
	return locs, ValidateLocations(locs)
}

// ValidateLocations checks every location and rejects duplicate ids and
// unknown timezones.
func ValidateLocations(locs []weather.Location) error {
	if len(locs) == 0 {
		return fmt.Errorf("at least one location is required")
	}
	seen := make(map[string]bool, len(locs))
	for i, l := range locs {
		if err := validate.Struct(l); err != nil {
			return fmt.Errorf("location %d: %w", i, err)
		}
		if _, err := time.LoadLocation(l.Timezone); err != nil {
			return fmt.Errorf("location %s: invalid timezone: %w", l.ID, err)
		}
		if seen[l.ID] {
			return fmt.Errorf("location %s: duplicate id", l.ID)
		}
		seen[l.ID] = true
	}
	return nil
}

func hasLocation(locs []weather.Location, id string) bool {
	for _, l := range locs {
		if l.ID == id {
			return true
		}
	}
	return false
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, getenvDefault(key, def))
	}
	return d, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
