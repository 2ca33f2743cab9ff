package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Second, cfg.RefreshInterval)
	assert.Equal(t, 15*time.Second, cfg.MinFetchInterval)
	assert.Equal(t, 600, cfg.HistoryMax)
	assert.Equal(t, 0.5, cfg.RelayThreshold)
	assert.Equal(t, 30*time.Second, cfg.RelayInterval)
	assert.Equal(t, 2*time.Second, cfg.RelayTimeout)
	assert.False(t, cfg.RelayEnabled)
	assert.Equal(t, DefaultLocations, cfg.Locations)
	assert.NoError(t, ValidateLocations(DefaultLocations))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("RELAY_ENABLED", "true")
	t.Setenv("RELAY_THRESHOLD", "1.5")
	t.Setenv("DEFAULT_LOCATION", "berlin")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.True(t, cfg.RelayEnabled)
	assert.Equal(t, 1.5, cfg.RelayThreshold)
	assert.Equal(t, "berlin", cfg.DefaultLocation)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"REFRESH_INTERVAL": "soon",
		"RELAY_TIMEOUT":    "-1s",
		"RELAY_ENABLED":    "maybe",
		"RELAY_THRESHOLD":  "lots",
		"DEFAULT_LOCATION": "atlantis",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_LocationsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "oslo", "label": "Oslo", "latitude": 59.91, "longitude": 10.75, "timezone": "Europe/Oslo"}
	]`), 0o644))
	t.Setenv("LOCATIONS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Locations, 1)
	assert.Equal(t, "oslo", cfg.Locations[0].ID)
}

func TestValidateLocations(t *testing.T) {
	good := weather.Location{ID: "a", Label: "A", Latitude: 1, Longitude: 2, Timezone: "UTC"}

	assert.Error(t, ValidateLocations(nil))
	assert.NoError(t, ValidateLocations([]weather.Location{good}))

	badLat := good
	badLat.Latitude = 91
	assert.Error(t, ValidateLocations([]weather.Location{badLat}))

	badTZ := good
	badTZ.Timezone = "Mars/Olympus"
	assert.Error(t, ValidateLocations([]weather.Location{badTZ}))

	noID := good
	noID.ID = ""
	assert.Error(t, ValidateLocations([]weather.Location{noID}))

	assert.Error(t, ValidateLocations([]weather.Location{good, good}))
}

func TestLoadBridge(t *testing.T) {
	cfg, err := LoadBridge()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.Equal(t, 9600, cfg.BaudRate)
	assert.Equal(t, "5000", cfg.Port)

	t.Setenv("BAUD_RATE", "fast")
	_, err = LoadBridge()
	assert.Error(t, err)
}
