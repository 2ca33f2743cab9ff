package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultOpenMeteoURL is the public Open-Meteo forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

var (
	currentFields = []string{
		"temperature_2m",
		"relative_humidity_2m",
		"precipitation",
		"wind_speed_10m",
		"wind_direction_10m",
		"weather_code",
	}
	hourlyFields = []string{
		"temperature_2m",
		"relative_humidity_2m",
		"precipitation_probability",
		"precipitation",
	}
)

var errMalformedPayload = errors.New("malformed payload")

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates a provider against baseURL. An empty baseURL
// uses DefaultOpenMeteoURL. maxRetries of 0 leaves retrying to the caller's
// next refresh. breakerCooldown <= 0 uses DefaultBreakerCooldown.
func NewOpenMeteoProvider(client *http.Client, baseURL string, maxRetries int, breakerCooldown time.Duration) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}

	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      maxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newCircuitBreaker("openmeteo", breakerCooldown),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPayload struct {
	Current *struct {
		Time               string   `json:"time"`
		Temperature2m      *float64 `json:"temperature_2m"`
		RelativeHumidity2m *float64 `json:"relative_humidity_2m"`
		Precipitation      *float64 `json:"precipitation"`
		WindSpeed10m       *float64 `json:"wind_speed_10m"`
		WindDirection10m   *float64 `json:"wind_direction_10m"`
		WeatherCode        *int     `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		Time                     []string   `json:"time"`
		Temperature2m            []*float64 `json:"temperature_2m"`
		RelativeHumidity2m       []*float64 `json:"relative_humidity_2m"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		Precipitation            []*float64 `json:"precipitation"`
	} `json:"hourly"`
}

// Fetch requests current conditions and the hourly series for loc.
func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Report, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
		values.Set("current", strings.Join(currentFields, ","))
		values.Set("hourly", strings.Join(hourlyFields, ","))
		values.Set("timezone", loc.Timezone)
		values.Set("wind_speed_unit", "kmh")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Report{}, err
	}
	defer resp.Body.Close()

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Report{}, fmt.Errorf("%w: %v", errMalformedPayload, err)
	}
	if payload.Current == nil {
		return weather.Report{}, fmt.Errorf("%w: missing current block", errMalformedPayload)
	}

	cond := weather.ConditionUnknown
	if payload.Current.WeatherCode != nil {
		cond = mapOpenMeteoCondition(*payload.Current.WeatherCode)
	}

	return weather.Report{
		Current: weather.Conditions{
			Time:          payload.Current.Time,
			Temperature:   payload.Current.Temperature2m,
			Humidity:      payload.Current.RelativeHumidity2m,
			Precipitation: payload.Current.Precipitation,
			WindSpeed:     payload.Current.WindSpeed10m,
			WindDirection: payload.Current.WindDirection10m,
			Condition:     cond,
		},
		Hourly: weather.HourlySeries{
			Time:                     payload.Hourly.Time,
			Temperature:              payload.Hourly.Temperature2m,
			Humidity:                 payload.Hourly.RelativeHumidity2m,
			PrecipitationProbability: payload.Hourly.PrecipitationProbability,
			Precipitation:            payload.Hourly.Precipitation,
		},
	}, nil
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// WMO weather interpretation codes, simplified.
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
