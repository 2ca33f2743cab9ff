package weather

import (
	"time"
)

// ForecastWindowSize is the number of hourly rows shown in the forecast table.
const ForecastWindowSize = 12

// hourLayout matches upstream hour strings once ":00" seconds are appended.
const hourLayout = "2006-01-02T15:04:05"

// NearestIndex returns the index of target in times, or of the first later
// hour. When the target lies past the end of the series or cannot be parsed
// it falls back to the start of the last ForecastWindowSize entries.
func NearestIndex(times []string, target string, loc *time.Location) int {
	if target == "" || times == nil {
		return 0
	}
	for i, t := range times {
		if t == target {
			return i
		}
	}

	fallback := max(len(times)-ForecastWindowSize, 0)
	if loc == nil {
		loc = time.UTC
	}

	want, err := time.ParseInLocation(hourLayout, target+":00", loc)
	if err != nil {
		return fallback
	}
	for i, t := range times {
		ts, err := time.ParseInLocation(hourLayout, t+":00", loc)
		if err != nil {
			continue
		}
		if !ts.Before(want) {
			return i
		}
	}
	return fallback
}

// ForecastWindow returns the half-open index range of the forecast rows to
// display for target.
func ForecastWindow(times []string, target string, loc *time.Location) (start, end int) {
	start = NearestIndex(times, target, loc)
	end = min(start+ForecastWindowSize, len(times))
	if start > end {
		start = end
	}
	return start, end
}
