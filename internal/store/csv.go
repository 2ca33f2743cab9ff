package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// ErrEmptyHistory is returned by ExportCSV when there is nothing to export.
var ErrEmptyHistory = errors.New("history is empty")

// TimestampLayout is the single display layout for capture instants.
const TimestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"Timestamp",
	"Observation Time",
	"Temperature (°C)",
	"Humidity (%)",
	"Precipitation (mm)",
	"Wind (km/h)",
}

// FormatTimestamp renders t in tz using TimestampLayout.
func FormatTimestamp(t time.Time, tz *time.Location) string {
	if t.IsZero() {
		return weather.Placeholder
	}
	if tz == nil {
		tz = time.UTC
	}
	return t.In(tz).Format(TimestampLayout)
}

// ExportFilename is the download name for a location's history export.
func ExportFilename(locationID string) string {
	return fmt.Sprintf("weather-history-%s.csv", locationID)
}

// ExportCSV writes the full history of locationID to w and returns the
// number of data rows. Nothing is written for an empty history.
func (h *HistoryStore) ExportCSV(w io.Writer, locationID string, tz *time.Location) (int, error) {
	history := h.ForLocation(locationID)
	if len(history) == 0 {
		return 0, ErrEmptyHistory
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, obs := range history {
		row := []string{
			FormatTimestamp(obs.CapturedAt, tz),
			obs.ObservationTime,
			weather.FormatValue(obs.Temperature, 1),
			weather.FormatValue(obs.Humidity, 0),
			weather.FormatValue(obs.Precipitation, 1),
			weather.FormatValue(obs.WindSpeed, 1),
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	return len(history), nil
}
