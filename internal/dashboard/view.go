package dashboard

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// CurrentView is the current-conditions panel.
type CurrentView struct {
	ObservationTime string            `json:"observationTime"`
	Temperature     string            `json:"temperature"`
	Humidity        string            `json:"humidity"`
	Precipitation   string            `json:"precipitation"`
	WindSpeed       string            `json:"windSpeed"`
	WindDirection   string            `json:"windDirection"`
	Condition       weather.Condition `json:"condition"`
}

// ForecastRow is one hour of the forecast table.
type ForecastRow struct {
	Time                     string `json:"time"`
	Temperature              string `json:"temperature"`
	Humidity                 string `json:"humidity"`
	PrecipitationProbability string `json:"precipitationProbability"`
	Precipitation            string `json:"precipitation"`
}

// TrendPoint is one sample of the trend chart. Missing readings are null.
type TrendPoint struct {
	Time          time.Time `json:"time"`
	Label         string    `json:"label"`
	Temperature   *float64  `json:"temperature"`
	Humidity      *float64  `json:"humidity"`
	Precipitation *float64  `json:"precipitation"`
	WindSpeed     *float64  `json:"windSpeed"`
}

// HistoryRow is one row of the history table and of the CSV export.
type HistoryRow struct {
	Timestamp       string `json:"timestamp"`
	ObservationTime string `json:"observationTime"`
	Temperature     string `json:"temperature"`
	Humidity        string `json:"humidity"`
	Precipitation   string `json:"precipitation"`
	WindSpeed       string `json:"windSpeed"`
}

// View is everything the dashboard page renders.
type View struct {
	Location    weather.Location `json:"location"`
	Headline    string           `json:"headline"`
	Subtitle    string           `json:"subtitle"`
	Current     CurrentView      `json:"current"`
	Forecast    []ForecastRow    `json:"forecast"`
	Trend       []TrendPoint     `json:"trend"`
	History     []HistoryRow     `json:"history"`
	LastUpdated string           `json:"lastUpdated"`
	Status      string           `json:"status"`
	Search      string           `json:"search"`
}

func (v View) clone() View {
	v.Forecast = append([]ForecastRow{}, v.Forecast...)
	v.Trend = append([]TrendPoint{}, v.Trend...)
	v.History = append([]HistoryRow{}, v.History...)
	return v
}

func emptyCurrent() CurrentView {
	return CurrentView{
		ObservationTime: weather.Placeholder,
		Temperature:     weather.Placeholder,
		Humidity:        weather.Placeholder,
		Precipitation:   weather.Placeholder,
		WindSpeed:       weather.Placeholder,
		WindDirection:   weather.Placeholder,
		Condition:       weather.ConditionUnknown,
	}
}

func renderCurrent(c weather.Conditions) CurrentView {
	obsTime := c.Time
	if obsTime == "" {
		obsTime = weather.Placeholder
	}
	cond := c.Condition
	if cond == "" {
		cond = weather.ConditionUnknown
	}
	return CurrentView{
		ObservationTime: obsTime,
		Temperature:     weather.FormatValue(c.Temperature, 1),
		Humidity:        weather.FormatValue(c.Humidity, 0),
		Precipitation:   weather.FormatValue(c.Precipitation, 1),
		WindSpeed:       weather.FormatValue(c.WindSpeed, 1),
		WindDirection:   weather.ToCardinal(weather.Float(c.WindDirection)),
		Condition:       cond,
	}
}

const hourLabelLayout = "Mon 15:04"

func hourLabel(raw string, tz *time.Location) string {
	t, err := time.ParseInLocation("2006-01-02T15:04", raw, tz)
	if err != nil {
		return raw
	}
	return t.Format(hourLabelLayout)
}

func renderForecast(r weather.Report, tz *time.Location) []ForecastRow {
	h := r.Hourly
	start, end := weather.ForecastWindow(h.Time, r.Current.Time, tz)

	rows := make([]ForecastRow, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, ForecastRow{
			Time:                     hourLabel(h.Time[i], tz),
			Temperature:              weather.FormatValue(weather.ValueAt(h.Temperature, i), 1),
			Humidity:                 weather.FormatValue(weather.ValueAt(h.Humidity, i), 0),
			PrecipitationProbability: weather.FormatValue(weather.ValueAt(h.PrecipitationProbability, i), 0),
			Precipitation:            weather.FormatValue(weather.ValueAt(h.Precipitation, i), 1),
		})
	}
	return rows
}

func renderHistory(history []weather.Observation, tz *time.Location) ([]HistoryRow, []TrendPoint) {
	rows := make([]HistoryRow, 0, len(history))
	trend := make([]TrendPoint, 0, len(history))
	for _, obs := range history {
		ts := store.FormatTimestamp(obs.CapturedAt, tz)
		rows = append(rows, HistoryRow{
			Timestamp:       ts,
			ObservationTime: obs.ObservationTime,
			Temperature:     weather.FormatValue(obs.Temperature, 1),
			Humidity:        weather.FormatValue(obs.Humidity, 0),
			Precipitation:   weather.FormatValue(obs.Precipitation, 1),
			WindSpeed:       weather.FormatValue(obs.WindSpeed, 1),
		})
		trend = append(trend, TrendPoint{
			Time:          obs.CapturedAt,
			Label:         ts,
			Temperature:   obs.Temperature,
			Humidity:      obs.Humidity,
			Precipitation: obs.Precipitation,
			WindSpeed:     obs.WindSpeed,
		})
	}
	return rows, trend
}
