package dashboard

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Session is the mutable state of one dashboard: which location is shown,
// what the user typed into search, when data last arrived and what is on
// screen. The Orchestrator owns it and serializes access.
type Session struct {
	locations []weather.Location
	active    weather.Location
	search    string

	// lastSuccess is when the most recent successful fetch completed.
	lastSuccess time.Time

	// issued counts fetches started; applied is the id of the newest
	// response written to the view.
	issued  uint64
	applied uint64

	view View
}

func newSession(locations []weather.Location, active weather.Location) *Session {
	s := &Session{locations: locations}
	s.activate(active)
	return s
}

func (s *Session) find(id string) (weather.Location, bool) {
	for _, l := range s.locations {
		if l.ID == id {
			return l, true
		}
	}
	return weather.Location{}, false
}

// activate switches the displayed location, clears the search input and
// resets the rate-limit guard so the next refresh goes out immediately.
func (s *Session) activate(loc weather.Location) {
	s.active = loc
	s.search = ""
	s.lastSuccess = time.Time{}

	headline := loc.Headline
	if headline == "" {
		headline = loc.Label
	}
	s.view = View{
		Location:    loc,
		Headline:    headline,
		Subtitle:    loc.Subtitle,
		Current:     emptyCurrent(),
		Forecast:    []ForecastRow{},
		Trend:       []TrendPoint{},
		History:     []HistoryRow{},
		LastUpdated: weather.Placeholder,
	}
}

func (s *Session) guarded(now time.Time, minInterval time.Duration) bool {
	if s.lastSuccess.IsZero() {
		return false
	}
	return now.Sub(s.lastSuccess) < minInterval
}

func (s *Session) nextRequest() uint64 {
	s.issued++
	return s.issued
}

// stale reports whether a response for request id against locationID must
// be discarded.
func (s *Session) stale(id uint64, locationID string) bool {
	return id < s.applied || locationID != s.active.ID
}

func (s *Session) matching(query string) []weather.Location {
	out := make([]weather.Location, 0, len(s.locations))
	for _, l := range s.locations {
		if common.MatchesAny(query, l.ID, l.Label, l.Headline) {
			out = append(out, l)
		}
	}
	return out
}
