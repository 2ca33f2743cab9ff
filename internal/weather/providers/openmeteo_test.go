package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const samplePayload = `{
  "current": {
    "time": "2024-05-01T10:15",
    "temperature_2m": 18.4,
    "relative_humidity_2m": 62,
    "precipitation": 0.2,
    "wind_speed_10m": 12.7,
    "wind_direction_10m": 225,
    "weather_code": 61
  },
  "hourly": {
    "time": ["2024-05-01T10:00", "2024-05-01T11:00", "2024-05-01T12:00"],
    "temperature_2m": [18.0, 19.1, null],
    "relative_humidity_2m": [60, 58, 57],
    "precipitation_probability": [40, 20],
    "precipitation": [0.1, 0.0, 0.0]
  }
}`

var vienna = weather.Location{
	ID:        "vienna",
	Label:     "Vienna",
	Latitude:  48.2082,
	Longitude: 16.3738,
	Timezone:  "Europe/Vienna",
}

func TestOpenMeteoProvider_Fetch(t *testing.T) {
	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, 0, 0)
	report, err := p.Fetch(context.Background(), vienna)
	require.NoError(t, err)

	q := query.Load().(url.Values)
	assert.Equal(t, []string{"48.2082"}, q["latitude"])
	assert.Equal(t, []string{"16.3738"}, q["longitude"])
	assert.Equal(t, []string{"Europe/Vienna"}, q["timezone"])
	assert.Equal(t, []string{"kmh"}, q["wind_speed_unit"])
	assert.Contains(t, q["current"][0], "wind_direction_10m")
	assert.Contains(t, q["hourly"][0], "precipitation_probability")

	assert.Equal(t, "2024-05-01T10:15", report.Current.Time)
	assert.InDelta(t, 18.4, *report.Current.Temperature, 1e-9)
	assert.InDelta(t, 12.7, *report.Current.WindSpeed, 1e-9)
	assert.InDelta(t, 225, *report.Current.WindDirection, 1e-9)
	assert.Equal(t, weather.ConditionRain, report.Current.Condition)

	require.Len(t, report.Hourly.Time, 3)
	assert.Nil(t, report.Hourly.Temperature[2])
	assert.Nil(t, weather.ValueAt(report.Hourly.PrecipitationProbability, 2))
}

func TestOpenMeteoProvider_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, 0, 0)
	_, err := p.Fetch(context.Background(), vienna)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errRateLimited))
}

func TestOpenMeteoProvider_MalformedPayload(t *testing.T) {
	for _, body := range []string{`not json`, `{"hourly": {"time": []}}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		p := NewOpenMeteoProvider(srv.Client(), srv.URL, 0, 0)
		_, err := p.Fetch(context.Background(), vienna)
		assert.ErrorIs(t, err, errMalformedPayload, "body %q", body)
		srv.Close()
	}
}

func TestOpenMeteoProvider_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, 1, 0)
	p.httpCfg.Backoff.InitialInterval = time.Millisecond

	_, err := p.Fetch(context.Background(), vienna)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenMeteoProvider_FailingTicksKeepReachingUpstream(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cooldown := 20 * time.Millisecond
	p := NewOpenMeteoProvider(srv.Client(), srv.URL, 0, cooldown)

	for i := 0; i < 7; i++ {
		_, err := p.Fetch(context.Background(), vienna)
		require.ErrorIs(t, err, errServerError, "fetch %d", i+1)
		time.Sleep(cooldown + 10*time.Millisecond)
	}
	assert.Equal(t, int32(7), hits.Load())
}

func TestOpenMeteoProvider_ForcedFetchBypassesOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, 0, time.Hour)
	for i := 0; i < 5; i++ {
		_, _ = p.Fetch(context.Background(), vienna)
	}
	require.Equal(t, int32(5), hits.Load())

	_, err := p.Fetch(context.Background(), vienna)
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, int32(5), hits.Load())

	_, err = p.Fetch(weather.WithForced(context.Background()), vienna)
	assert.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(6), hits.Load())
}

func TestMapOpenMeteoCondition(t *testing.T) {
	assert.Equal(t, weather.ConditionClear, mapOpenMeteoCondition(0))
	assert.Equal(t, weather.ConditionCloudy, mapOpenMeteoCondition(2))
	assert.Equal(t, weather.ConditionMist, mapOpenMeteoCondition(45))
	assert.Equal(t, weather.ConditionSnow, mapOpenMeteoCondition(73))
	assert.Equal(t, weather.ConditionStorm, mapOpenMeteoCondition(96))
	assert.Equal(t, weather.ConditionUnknown, mapOpenMeteoCondition(30))
}
