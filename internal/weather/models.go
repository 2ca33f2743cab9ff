package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Location is a place the dashboard can display. Locations are immutable once
// loaded; only the session's choice of active location changes.
type Location struct {
	ID        string  `json:"id" validate:"required"`
	Label     string  `json:"label" validate:"required"`
	Headline  string  `json:"headline"`
	Subtitle  string  `json:"subtitle"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Timezone  string  `json:"timezone" validate:"required"`
}

// TZ resolves the location's IANA timezone, falling back to UTC.
func (l Location) TZ() *time.Location {
	tz, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.UTC
	}
	return tz
}

// Observation is one captured weather snapshot for a location.
// Nil readings were missing from the upstream payload.
type Observation struct {
	CapturedAt      time.Time `json:"capturedAt"`
	ObservationTime string    `json:"observationTime"`
	Temperature     *float64  `json:"temperature"`
	Humidity        *float64  `json:"humidity"`
	Precipitation   *float64  `json:"precipitation"`
	WindSpeed       *float64  `json:"windSpeed"`
}

// Conditions is the "current" block of an upstream report.
type Conditions struct {
	Time          string    `json:"time"`
	Temperature   *float64  `json:"temperature"`
	Humidity      *float64  `json:"humidity"`
	Precipitation *float64  `json:"precipitation"`
	WindSpeed     *float64  `json:"windSpeed"`
	WindDirection *float64  `json:"windDirection"`
	Condition     Condition `json:"condition"`
}

// HourlySeries holds parallel hourly arrays aligned by index with Time.
type HourlySeries struct {
	Time                     []string   `json:"time"`
	Temperature              []*float64 `json:"temperature"`
	Humidity                 []*float64 `json:"humidity"`
	PrecipitationProbability []*float64 `json:"precipitationProbability"`
	Precipitation            []*float64 `json:"precipitation"`
}

// Report is a complete upstream response for one location.
type Report struct {
	Current Conditions   `json:"current"`
	Hourly  HourlySeries `json:"hourly"`
}

// ValueAt returns series[i], or nil when the series is too short.
func ValueAt(series []*float64, i int) *float64 {
	if i < 0 || i >= len(series) {
		return nil
	}
	return series[i]
}

// Observe builds an Observation from the report's current conditions.
func (r Report) Observe(capturedAt time.Time) Observation {
	return Observation{
		CapturedAt:      capturedAt,
		ObservationTime: r.Current.Time,
		Temperature:     r.Current.Temperature,
		Humidity:        r.Current.Humidity,
		Precipitation:   r.Current.Precipitation,
		WindSpeed:       r.Current.WindSpeed,
	}
}
