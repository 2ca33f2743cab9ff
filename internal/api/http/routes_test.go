package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type stubProvider struct {
	mu  sync.Mutex
	err error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Fetch(_ context.Context, loc weather.Location) (weather.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return weather.Report{}, s.err
	}
	temp, wind := 21.3, 8.0
	return weather.Report{
		Current: weather.Conditions{Time: "2024-05-01T10:00", Temperature: &temp, WindSpeed: &wind},
		Hourly:  weather.HourlySeries{Time: []string{"2024-05-01T10:00", "2024-05-01T11:00"}},
	}, nil
}

var testLocations = []weather.Location{
	{ID: "vienna", Label: "Vienna", Latitude: 48.2, Longitude: 16.37, Timezone: "Europe/Vienna"},
	{ID: "berlin", Label: "Berlin", Latitude: 52.52, Longitude: 13.4, Timezone: "Europe/Berlin"},
}

func newTestApp(t *testing.T) (*stubProvider, *dashboard.Orchestrator, func(*http.Request) *http.Response) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	hist := store.OpenHistory(store.NewMemoryStorage(), "weather-history", 0, slog.Default(), metrics)
	prov := &stubProvider{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC))

	orch, err := dashboard.New(dashboard.Config{Locations: testLocations}, prov, hist, nil, clock, slog.Default(), metrics)
	require.NoError(t, err)

	app := NewApp("test", false)
	RegisterRoutes(app, orch)

	do := func(req *http.Request) *http.Response {
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}
	return prov, orch, do
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	_, _, do := newTestApp(t)
	resp := do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDashboardAndRefresh(t *testing.T) {
	_, _, do := newTestApp(t)

	resp := do(httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var view dashboard.View
	decode(t, do(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)), &view)
	assert.Equal(t, "vienna", view.Location.ID)
	assert.Equal(t, "21.3", view.Current.Temperature)
	assert.Len(t, view.Forecast, 2)
	assert.Len(t, view.History, 1)
}

func TestRefreshFailureReturnsStatus(t *testing.T) {
	prov, _, do := newTestApp(t)
	prov.err = errors.New("upstream down")

	resp := do(httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, dashboard.StatusFetchFailed, body["message"])
}

func TestSelectLocation(t *testing.T) {
	_, orch, do := newTestApp(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/location", strings.NewReader(`{"id":"berlin"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := do(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, "berlin", orch.Active().ID)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/location", strings.NewReader(`{"id":"atlantis"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusNotFound, do(req).StatusCode)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/location", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(req).StatusCode)
}

func TestLocationsSearch(t *testing.T) {
	_, orch, do := newTestApp(t)

	var all struct {
		Locations []weather.Location `json:"locations"`
	}
	decode(t, do(httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil)), &all)
	assert.Len(t, all.Locations, 2)

	var found struct {
		Locations []weather.Location `json:"locations"`
	}
	decode(t, do(httptest.NewRequest(http.MethodGet, "/api/v1/locations?q=ber", nil)), &found)
	require.Len(t, found.Locations, 1)
	assert.Equal(t, "berlin", found.Locations[0].ID)
	assert.Equal(t, "ber", orch.View().Search)
}

func TestHistoryLimitValidation(t *testing.T) {
	_, _, do := newTestApp(t)

	resp := do(httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=-3", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=5", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExport(t *testing.T) {
	_, _, do := newTestApp(t)

	resp := do(httptest.NewRequest(http.MethodGet, "/api/v1/history/export", nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Content-Disposition"))

	do(httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)).Body.Close()

	resp = do(httptest.NewRequest(http.MethodGet, "/api/v1/history/export", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "weather-history-vienna.csv")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Timestamp,Observation Time,Temperature (°C),Humidity (%),Precipitation (mm),Wind (km/h)", lines[0])
	assert.Equal(t, "2024-05-01 10:00:00,2024-05-01T10:00,21.3,--,--,8.0", lines[1])
}
